package docsync

import (
	"context"

	dombatch "github.com/kailas-cloud/docsync/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
	documentuc "github.com/kailas-cloud/docsync/internal/usecase/document"
	healthuc "github.com/kailas-cloud/docsync/internal/usecase/health"
	reconcileuc "github.com/kailas-cloud/docsync/internal/usecase/reconcile"
)

// --- documentUseCase mock ---

type mockDocumentUC struct {
	createOneFn  func(ctx context.Context, doc *domdoc.Document) (documentuc.CreateResult, error)
	createManyFn func(ctx context.Context, docs []domdoc.Document) (dombatch.Result, error)
	searchFn     func(ctx context.Context, query string, limit int) ([]domdoc.Document, error)
	getFn        func(ctx context.Context, id int64) (domdoc.Document, error)
	deleteFn     func(ctx context.Context, id int64) error
}

func (m *mockDocumentUC) CreateOne(ctx context.Context, doc *domdoc.Document) (documentuc.CreateResult, error) {
	return m.createOneFn(ctx, doc)
}

func (m *mockDocumentUC) CreateMany(ctx context.Context, docs []domdoc.Document) (dombatch.Result, error) {
	return m.createManyFn(ctx, docs)
}

func (m *mockDocumentUC) SearchAndGetMany(ctx context.Context, query string, limit int) ([]domdoc.Document, error) {
	return m.searchFn(ctx, query, limit)
}

func (m *mockDocumentUC) Get(ctx context.Context, id int64) (domdoc.Document, error) {
	return m.getFn(ctx, id)
}

func (m *mockDocumentUC) Delete(ctx context.Context, id int64) error {
	return m.deleteFn(ctx, id)
}

// --- ingestUseCase mock ---

type mockIngestUC struct {
	ingestPathFn func(ctx context.Context, path, separator string) (dombatch.Result, error)
}

func (m *mockIngestUC) IngestPath(ctx context.Context, path, separator string) (dombatch.Result, error) {
	return m.ingestPathFn(ctx, path, separator)
}

// --- reconcileUseCase mock ---

type mockReconcileUC struct {
	runOnceFn func(ctx context.Context) (reconcileuc.Stats, error)
}

func (m *mockReconcileUC) RunOnce(ctx context.Context) (reconcileuc.Stats, error) {
	return m.runOnceFn(ctx)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(context.Context) healthuc.Report {
	return m.report
}
