package document

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsync/internal/domain"
	dombatch "github.com/kailas-cloud/docsync/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
	"github.com/kailas-cloud/docsync/internal/logger"
	"github.com/kailas-cloud/docsync/internal/metrics"
)

// MaxSearchLimit is the largest page a search may return.
const MaxSearchLimit = 20

// CreateResult is the outcome of a single create.
// IndexFailed is set when the document was stored but its index entry
// could not be written.
type CreateResult struct {
	Document    domdoc.Document
	IndexFailed bool
}

// Service keeps the record store and the search index in step.
// The store is written first on create, the index first on delete.
type Service struct {
	store Store
	index Index
}

// New creates a synchronization service.
func New(store Store, index Index) *Service {
	return &Service{store: store, index: index}
}

// CreateOne stores doc and then indexes it. A store failure aborts before
// the index is touched; an index failure is reported, not returned.
func (s *Service) CreateOne(ctx context.Context, doc *domdoc.Document) (CreateResult, error) {
	stored, err := s.store.Insert(ctx, doc)
	if err != nil {
		return CreateResult{}, fmt.Errorf("insert document: %w", err)
	}
	metrics.DocumentsWrittenTotal.WithLabelValues("create_one").Inc()

	res := CreateResult{Document: stored}
	if err := s.index.Add(ctx, stored.Entry()); err != nil {
		res.IndexFailed = true
		metrics.IndexWritesTotal.WithLabelValues("add", "error").Inc()
		logger.FromContext(ctx).Warn("index add failed",
			zap.Int64("id", stored.ID()),
			zap.Error(err),
		)
		return res, nil
	}
	metrics.IndexWritesTotal.WithLabelValues("add", "ok").Inc()
	return res, nil
}

// CreateMany stores docs in one transaction and bulk-indexes them.
// Empty input returns domain.ErrNothingToAdd without touching either side.
func (s *Service) CreateMany(ctx context.Context, docs []domdoc.Document) (dombatch.Result, error) {
	if len(docs) == 0 {
		return dombatch.Result{}, domain.ErrNothingToAdd
	}

	stored, err := s.store.InsertMany(ctx, docs)
	if err != nil {
		return dombatch.Result{}, fmt.Errorf("insert documents: %w", err)
	}
	metrics.DocumentsWrittenTotal.WithLabelValues("create_many").Add(float64(len(stored)))

	failures := s.index.AddMany(ctx, entriesOf(stored))
	metrics.IndexWritesTotal.WithLabelValues("add_many", "ok").Add(float64(len(stored) - failures))
	metrics.IndexWritesTotal.WithLabelValues("add_many", "error").Add(float64(failures))

	if failures > 0 {
		logger.FromContext(ctx).Warn("bulk index incomplete",
			zap.Int("attempted", len(stored)),
			zap.Int("index_failures", failures),
		)
	}
	return dombatch.NewResult(len(stored), failures), nil
}

// SearchAndGetMany finds up to limit documents whose text matches query.
// Results are ordered by created date, newest first; index relevance
// only decides which documents qualify.
func (s *Service) SearchAndGetMany(ctx context.Context, query string, limit int) ([]domdoc.Document, error) {
	if limit < 0 || limit > MaxSearchLimit {
		return nil, domain.NewValidation("limit", fmt.Sprintf("must be between 0 and %d", MaxSearchLimit))
	}
	if limit == 0 {
		return []domdoc.Document{}, nil
	}

	ids := make([]int64, 0, limit)
	for id, err := range s.index.Query(ctx, query, limit) {
		if err != nil {
			if errors.Is(err, domain.ErrIndexNotFound) {
				logger.FromContext(ctx).Debug("search on missing index", zap.Error(err))
				return []domdoc.Document{}, nil
			}
			return nil, fmt.Errorf("query index: %w", err)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		metrics.SearchResultsTotal.Observe(0)
		return []domdoc.Document{}, nil
	}

	docs, err := s.store.GetManyByIDs(ctx, ids, limit)
	if err != nil {
		return nil, fmt.Errorf("get documents: %w", err)
	}
	metrics.SearchResultsTotal.Observe(float64(len(docs)))
	return docs, nil
}

// Get returns one document from the store.
func (s *Service) Get(ctx context.Context, id int64) (domdoc.Document, error) {
	doc, err := s.store.GetByID(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Delete removes the index entry and then the stored document. Both steps
// are attempted; a missing document is domain.ErrDocumentNotFound even
// when the index step failed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	idxErr := s.index.Delete(ctx, id)
	if idxErr != nil {
		metrics.IndexWritesTotal.WithLabelValues("delete", "error").Inc()
	} else {
		metrics.IndexWritesTotal.WithLabelValues("delete", "ok").Inc()
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if idxErr != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
			return fmt.Errorf("delete document: %w", errors.Join(err, idxErr))
		}
		return fmt.Errorf("delete document: %w", err)
	}
	if idxErr != nil {
		logger.FromContext(ctx).Error("document deleted but index entry kept",
			zap.Int64("id", id),
			zap.Error(idxErr),
		)
		return fmt.Errorf("delete index entry: %w", idxErr)
	}
	return nil
}

func entriesOf(docs []domdoc.Document) iter.Seq[domdoc.Entry] {
	return func(yield func(domdoc.Entry) bool) {
		for i := range docs {
			if !yield(docs[i].Entry()) {
				return
			}
		}
	}
}
