package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ErrorCode is the machine-readable error kind in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidation       ErrorCode = "validation_error"
	ErrorCodeConflict         ErrorCode = "conflict"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodePayloadTooLarge  ErrorCode = "payload_too_large"
	ErrorCodeIndexUnavailable ErrorCode = "index_unavailable"
	ErrorCodeUpstream         ErrorCode = "upstream_error"
	ErrorCodeInternal         ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Row     *int      `json:"row,omitempty"`
}

// DocumentResponse is a stored document.
type DocumentResponse struct {
	ID          int64    `json:"id"`
	Rubrics     []string `json:"rubrics"`
	Text        string   `json:"text"`
	CreatedDate string   `json:"created_date"`
}

// CreateDocumentRequest is the body of POST /docs.
type CreateDocumentRequest struct {
	Rubrics     []string `json:"rubrics"`
	Text        string   `json:"text"`
	CreatedDate string   `json:"created_date"`
}

// CreateDocumentResponse is a created document plus the index outcome.
type CreateDocumentResponse struct {
	DocumentResponse
	IndexFailed bool `json:"index_failed"`
}

// IngestionResponse reports a bulk ingestion.
type IngestionResponse struct {
	Message       string `json:"message"`
	Attempted     int    `json:"attempted"`
	IndexFailures int    `json:"index_failures"`
}

// HealthResponse reports component status.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// DocumentID is the path parameter of single-document routes.
type DocumentID = int64

// SearchDocumentsParams are the query parameters of GET /docs/search.
type SearchDocumentsParams struct {
	Query string
	Limit *int
}

// UploadFromYandexDiskParams are the query parameters of
// POST /ingestion/upload-from-yandex-disk.
type UploadFromYandexDiskParams struct {
	DiskLink  string
	Separator *string
}

// ServerInterface is implemented by the HTTP server.
type ServerInterface interface {
	// GET /docs/search
	SearchDocuments(w http.ResponseWriter, r *http.Request, params SearchDocumentsParams)
	// POST /docs
	CreateDocument(w http.ResponseWriter, r *http.Request)
	// GET /docs/{documentId}
	GetDocument(w http.ResponseWriter, r *http.Request, documentID DocumentID)
	// DELETE /docs/delete/{documentId}
	DeleteDocument(w http.ResponseWriter, r *http.Request, documentID DocumentID)
	// POST /ingestion/upload-from-file
	UploadFromFile(w http.ResponseWriter, r *http.Request)
	// POST /ingestion/upload-from-yandex-disk
	UploadFromYandexDisk(w http.ResponseWriter, r *http.Request, params UploadFromYandexDiskParams)
	// GET /health
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// GET /metrics
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// RequiredParamError reports a missing required parameter.
type RequiredParamError struct {
	ParamName string
}

func (e *RequiredParamError) Error() string {
	return fmt.Sprintf("query parameter %s is required, but not found", e.ParamName)
}

// ServerInterfaceWrapper binds parameters and dispatches to the handler.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *ServerInterfaceWrapper) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	var params SearchDocumentsParams
	q := r.URL.Query()

	if !q.Has("query") {
		siw.ErrorHandlerFunc(w, r, &RequiredParamError{ParamName: "query"})
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "query", q, &params.Query); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "query", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	siw.Handler.SearchDocuments(w, r, params)
}

func (siw *ServerInterfaceWrapper) CreateDocument(w http.ResponseWriter, r *http.Request) {
	siw.Handler.CreateDocument(w, r)
}

func (siw *ServerInterfaceWrapper) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.bindDocumentID(w, r)
	if !ok {
		return
	}
	siw.Handler.GetDocument(w, r, id)
}

func (siw *ServerInterfaceWrapper) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := siw.bindDocumentID(w, r)
	if !ok {
		return
	}
	siw.Handler.DeleteDocument(w, r, id)
}

func (siw *ServerInterfaceWrapper) UploadFromFile(w http.ResponseWriter, r *http.Request) {
	siw.Handler.UploadFromFile(w, r)
}

func (siw *ServerInterfaceWrapper) UploadFromYandexDisk(w http.ResponseWriter, r *http.Request) {
	var params UploadFromYandexDiskParams
	q := r.URL.Query()

	if !q.Has("diskLink") {
		siw.ErrorHandlerFunc(w, r, &RequiredParamError{ParamName: "diskLink"})
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "diskLink", q, &params.DiskLink); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "diskLink", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "separator", q, &params.Separator); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "separator", Err: err})
		return
	}

	siw.Handler.UploadFromYandexDisk(w, r, params)
}

func (siw *ServerInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.Handler.HealthCheck(w, r)
}

func (siw *ServerInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.Handler.Metrics(w, r)
}

func (siw *ServerInterfaceWrapper) bindDocumentID(w http.ResponseWriter, r *http.Request) (DocumentID, bool) {
	var id DocumentID
	err := runtime.BindStyledParameterWithOptions("simple", "documentId", chi.URLParam(r, "documentId"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "documentId", Err: err})
		return 0, false
	}
	return id, true
}

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts every route of si on options.BaseRouter.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{Handler: si, ErrorHandlerFunc: options.ErrorHandlerFunc}

	r.Group(func(r chi.Router) {
		r.Get("/docs/search", wrapper.SearchDocuments)
		r.Post("/docs", wrapper.CreateDocument)
		r.Get("/docs/{documentId}", wrapper.GetDocument)
		r.Delete("/docs/delete/{documentId}", wrapper.DeleteDocument)
		r.Post("/ingestion/upload-from-file", wrapper.UploadFromFile)
		r.Post("/ingestion/upload-from-yandex-disk", wrapper.UploadFromYandexDisk)
		r.Get("/health", wrapper.HealthCheck)
		r.Get("/metrics", wrapper.Metrics)
	})
	return r
}
