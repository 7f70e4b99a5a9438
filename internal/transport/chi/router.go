package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsync/internal/metrics"
)

// NewRouter mounts si behind recovery, request id, request logging, auth
// and HTTP metrics.
func NewRouter(si ServerInterface, log *zap.Logger, apiKeys []string) http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(log))
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(BearerAuthMiddleware(apiKeys))
	r.Use(metrics.Middleware())
	return HandlerWithOptions(si, ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: InvalidParamHandler,
	})
}
