package docsync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsync/internal/app"
	"github.com/kailas-cloud/docsync/internal/config"
	dombatch "github.com/kailas-cloud/docsync/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
	documentuc "github.com/kailas-cloud/docsync/internal/usecase/document"
	reconcileuc "github.com/kailas-cloud/docsync/internal/usecase/reconcile"
)

// Internal interfaces, swapped for mocks in tests.
type documentUseCase interface {
	CreateOne(ctx context.Context, doc *domdoc.Document) (documentuc.CreateResult, error)
	CreateMany(ctx context.Context, docs []domdoc.Document) (dombatch.Result, error)
	SearchAndGetMany(ctx context.Context, query string, limit int) ([]domdoc.Document, error)
	Get(ctx context.Context, id int64) (domdoc.Document, error)
	Delete(ctx context.Context, id int64) error
}

type ingestUseCase interface {
	IngestPath(ctx context.Context, path, separator string) (dombatch.Result, error)
}

type reconcileUseCase interface {
	RunOnce(ctx context.Context) (reconcileuc.Stats, error)
}

// Client is the docsync SDK entry point.
type Client struct {
	app       *app.App
	docSvc    documentUseCase
	ingestSvc ingestUseCase
	reconSvc  reconcileUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New connects to the record store and the search index, migrating the
// documents table and creating the index when missing.
// The provided context bounds the readiness checks.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.database.Driver == "" {
		return nil, errors.New("docsync: record store required (use WithPostgres or WithSQLite)")
	}
	if cfg.index.Host == "" {
		return nil, errors.New("docsync: search index address required (use WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	full := cfg.toConfig()
	a, err := app.New(ctx, &full, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("docsync: %w", err)
	}

	return &Client{
		app:       a,
		docSvc:    a.Documents,
		ingestSvc: a.Ingestion,
		reconSvc:  a.Reconcile,
		healthSvc: a.Health,
		obs:       obs,
	}, nil
}

func (c *clientConfig) toConfig() config.Config {
	full := config.Config{
		Database:  c.database,
		Index:     c.index,
		Ingestion: config.IngestionConfig{TempDir: c.tempDir},
		Reconcile: config.ReconcileConfig{VerifyText: c.verifyText},
	}
	full.ApplyDefaults()
	return full
}

// Close releases all resources.
func (c *Client) Close() {
	if c.app != nil {
		c.app.Close()
	}
}

// Create stores one document and indexes it. The document is stored even
// when indexing fails; CreateResult.IndexFailed reports that case.
func (c *Client) Create(ctx context.Context, doc Document) (res CreateResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("create", start, err) }()

	d, err := toInternalDocument(doc)
	if err != nil {
		return CreateResult{}, fmt.Errorf("create: %w", err)
	}
	out, err := c.docSvc.CreateOne(ctx, &d)
	if err != nil {
		return CreateResult{}, fmt.Errorf("create: %w", err)
	}
	return CreateResult{Document: fromInternalDocument(&out.Document), IndexFailed: out.IndexFailed}, nil
}

// CreateMany stores all documents in one transaction, then indexes them.
// An empty slice returns ErrNothingToAdd.
func (c *Client) CreateMany(ctx context.Context, docs []Document) (res BatchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("create_many", start, err) }()

	in := make([]domdoc.Document, len(docs))
	for i := range docs {
		if in[i], err = toInternalDocument(docs[i]); err != nil {
			return BatchResult{}, fmt.Errorf("create many: document %d: %w", i, err)
		}
	}
	out, err := c.docSvc.CreateMany(ctx, in)
	if err != nil {
		return BatchResult{}, fmt.Errorf("create many: %w", err)
	}
	return fromBatch(out), nil
}

// Search returns up to limit (at most 20) documents matching any query term,
// newest first.
func (c *Client) Search(ctx context.Context, query string, limit int) (docs []Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("search", start, err) }()

	found, err := c.docSvc.SearchAndGetMany(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	docs = make([]Document, len(found))
	for i := range found {
		docs[i] = fromInternalDocument(&found[i])
	}
	return docs, nil
}

// Get retrieves a document by id.
func (c *Client) Get(ctx context.Context, id int64) (doc Document, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get", start, err) }()

	d, err := c.docSvc.Get(ctx, id)
	if err != nil {
		return Document{}, fmt.Errorf("get document: %w", err)
	}
	return fromInternalDocument(&d), nil
}

// Delete removes a document from the index and the record store.
func (c *Client) Delete(ctx context.Context, id int64) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete", start, err) }()

	if err = c.docSvc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// ImportFile loads a CSV or parquet file. An empty separator means ",".
func (c *Client) ImportFile(ctx context.Context, path, separator string) (res BatchResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("import", start, err) }()

	out, err := c.ingestSvc.IngestPath(ctx, path, separator)
	if err != nil {
		return BatchResult{}, fmt.Errorf("import %s: %w", path, err)
	}
	return fromBatch(out), nil
}

// Reconcile runs one repair pass between the record store and the index.
func (c *Client) Reconcile(ctx context.Context) (stats ReconcileStats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reconcile", start, err) }()

	s, err := c.reconSvc.RunOnce(ctx)
	stats = ReconcileStats{Scanned: s.Scanned, Reindexed: s.Reindexed, Orphans: s.Orphans, Errors: s.Errors}
	if err != nil {
		return stats, fmt.Errorf("reconcile: %w", err)
	}
	return stats, nil
}

func splitAddr(addr string) (string, int) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return host, 0
	}
	return host, n
}
