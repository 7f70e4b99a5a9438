package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsync/internal/domain"
	dombatch "github.com/kailas-cloud/docsync/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
	"github.com/kailas-cloud/docsync/internal/logger"
	documentuc "github.com/kailas-cloud/docsync/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docsync/internal/usecase/health"
)

const (
	defaultSearchLimit = documentuc.MaxSearchLimit
	defaultMaxUpload   = 64 << 20
	multipartMemory    = 8 << 20
)

// DocumentService is the synchronization service as seen by the API.
type DocumentService interface {
	CreateOne(ctx context.Context, doc *domdoc.Document) (documentuc.CreateResult, error)
	SearchAndGetMany(ctx context.Context, query string, limit int) ([]domdoc.Document, error)
	Get(ctx context.Context, id int64) (domdoc.Document, error)
	Delete(ctx context.Context, id int64) error
}

// IngestionService loads tabular files.
type IngestionService interface {
	IngestReader(ctx context.Context, r io.Reader, separator string) (dombatch.Result, error)
	IngestRemote(ctx context.Context, link, separator string) (dombatch.Result, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server implements ServerInterface.
type Server struct {
	documents     DocumentService
	ingestion     IngestionService
	health        HealthChecker
	logger        *zap.Logger
	maxUpload     int64
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(documents DocumentService, ingestion IngestionService, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		documents: documents,
		ingestion: ingestion,
		health:    health,
		logger:    logger,
		maxUpload: defaultMaxUpload,
		errorHandlers: []errorHandler{
			rowErrorHandler,
			validationHandler,
			sentinelHandler(domain.ErrConflict, http.StatusConflict, ErrorCodeConflict),
			sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, ErrorCodeNotFound),
			sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, ErrorCodeIndexUnavailable),
			sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, ErrorCodeUpstream),
			tooLargeHandler,
		},
	}
}

// WithMaxUpload caps multipart upload size in bytes.
func (s *Server) WithMaxUpload(n int64) *Server {
	if n > 0 {
		s.maxUpload = n
	}
	return s
}

// SearchDocuments handles GET /docs/search.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request, params SearchDocumentsParams) {
	limit := defaultSearchLimit
	if params.Limit != nil {
		limit = *params.Limit
	}

	docs, err := s.documents.SearchAndGetMany(r.Context(), params.Query, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i := range docs {
		items[i] = documentToResponse(&docs[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// CreateDocument handles POST /docs.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := domdoc.ParseTimestamp(req.CreatedDate)
	if err != nil {
		s.handleDomainError(w, r, domain.NewValidation("created_date", err.Error()))
		return
	}
	doc, err := domdoc.New(req.Rubrics, req.Text, created)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.documents.CreateOne(r.Context(), &doc)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/docs/%d", res.Document.ID()))
	writeJSON(w, http.StatusCreated, CreateDocumentResponse{
		DocumentResponse: documentToResponse(&res.Document),
		IndexFailed:      res.IndexFailed,
	})
}

// GetDocument handles GET /docs/{documentId}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request, documentID DocumentID) {
	doc, err := s.documents.Get(r.Context(), documentID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentToResponse(&doc))
}

// DeleteDocument handles DELETE /docs/delete/{documentId}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request, documentID DocumentID) {
	if err := s.documents.Delete(r.Context(), documentID); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadFromFile handles POST /ingestion/upload-from-file.
func (s *Server) UploadFromFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if tooLargeHandler(w, err) {
			return
		}
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid multipart body: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, _, err := r.FormFile("file")
	if err != nil {
		s.handleDomainError(w, r, domain.NewValidation("file", "is required"))
		return
	}
	defer func() { _ = file.Close() }()

	separator := r.FormValue("separator")
	res, err := s.ingestion.IngestReader(r.Context(), file, separator)
	s.writeIngestion(w, r, res, err)
}

// UploadFromYandexDisk handles POST /ingestion/upload-from-yandex-disk.
func (s *Server) UploadFromYandexDisk(w http.ResponseWriter, r *http.Request, params UploadFromYandexDiskParams) {
	separator := ""
	if params.Separator != nil {
		separator = *params.Separator
	}
	res, err := s.ingestion.IngestRemote(r.Context(), params.DiskLink, separator)
	s.writeIngestion(w, r, res, err)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) writeIngestion(w http.ResponseWriter, r *http.Request, res dombatch.Result, err error) {
	if errors.Is(err, domain.ErrNothingToAdd) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, IngestionResponse{
		Message: fmt.Sprintf(
			"Documents added successfully. Errors occurred during indexing of %d documents", res.IndexFailures()),
		Attempted:     res.Attempted(),
		IndexFailures: res.IndexFailures(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// Only the sentinel text reaches the client.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

// rowErrorHandler reports which input row failed.
func rowErrorHandler(w http.ResponseWriter, err error) bool {
	var re *domain.RowError
	if !errors.As(err, &re) {
		return false
	}
	row := re.Row
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    ErrorCodeValidation,
		Message: re.Error(),
		Row:     &row,
	})
	return true
}

// validationHandler passes field-level validation messages through.
func validationHandler(w http.ResponseWriter, err error) bool {
	if !errors.Is(err, domain.ErrValidation) {
		return false
	}
	msg := domain.ErrValidation.Error()
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Error()
	}
	writeError(w, http.StatusBadRequest, ErrorCodeValidation, msg)
	return true
}

func tooLargeHandler(w http.ResponseWriter, err error) bool {
	var mbe *http.MaxBytesError
	if !errors.As(err, &mbe) {
		return false
	}
	writeError(w, http.StatusRequestEntityTooLarge, ErrorCodePayloadTooLarge,
		fmt.Sprintf("upload exceeds %d bytes", mbe.Limit))
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternal, "internal error")
}

func documentToResponse(doc *domdoc.Document) DocumentResponse {
	rubrics := doc.Rubrics()
	if rubrics == nil {
		rubrics = []string{}
	}
	return DocumentResponse{
		ID:          doc.ID(),
		Rubrics:     rubrics,
		Text:        doc.Text(),
		CreatedDate: domdoc.FormatTimestamp(doc.CreatedDate()),
	}
}
