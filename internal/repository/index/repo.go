package index

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsync/internal/db"
	"github.com/kailas-cloud/docsync/internal/domain"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

// Defaults for the documents index.
const (
	DefaultName      = "documents"
	DefaultPrefix    = "documents:"
	DefaultChunkSize = 500
	defaultPageSize  = 100
)

// store is the consumer interface for the search backend (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) []error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo is the search index client: it keeps one hash per document
// projection under a key prefix covered by a full-text index.
type Repo struct {
	store     store
	name      string
	prefix    string
	language  string
	chunkSize int
	pageSize  int
	logger    *zap.Logger
}

// New creates an index repository with default names.
func New(s store) *Repo {
	return &Repo{
		store:     s,
		name:      DefaultName,
		prefix:    DefaultPrefix,
		chunkSize: DefaultChunkSize,
		pageSize:  defaultPageSize,
		logger:    zap.NewNop(),
	}
}

// WithNames overrides the index name and key prefix.
func (r *Repo) WithNames(name, prefix string) *Repo {
	if name != "" {
		r.name = name
	}
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

// WithLanguage sets the stemming language used when the index is created.
func (r *Repo) WithLanguage(lang string) *Repo {
	r.language = lang
	return r
}

// WithChunkSize sets the number of entries per bulk pipeline round-trip.
func (r *Repo) WithChunkSize(n int) *Repo {
	if n > 0 {
		r.chunkSize = n
	}
	return r
}

// WithPageSize sets the number of ids fetched per query page.
func (r *Repo) WithPageSize(n int) *Repo {
	if n > 0 {
		r.pageSize = n
	}
	return r
}

// WithLogger sets the logger used for per-item bulk failures.
func (r *Repo) WithLogger(l *zap.Logger) *Repo {
	if l != nil {
		r.logger = l
	}
	return r
}

// Name returns the index name.
func (r *Repo) Name() string { return r.name }

// EnsureIndex creates the full-text index if it is missing.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	b := db.NewIndex(r.name).Prefix(r.prefix).Text(fieldText)
	if r.language != "" {
		b = b.Language(r.language)
	}
	def, err := b.Build()
	if err != nil {
		return fmt.Errorf("build index %s: %w", r.name, err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return translate(fmt.Errorf("create index %s: %w", r.name, err))
	}
	return nil
}

// Ping reports whether the backend answers and the index exists. A dropped
// index makes every search come back empty, so it counts as a failure.
func (r *Repo) Ping(ctx context.Context) error {
	ok, err := r.store.IndexExists(ctx, r.name)
	if err != nil {
		return translate(fmt.Errorf("probe index %s: %w", r.name, err))
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, r.name)
	}
	return nil
}

// Add writes one index entry.
func (r *Repo) Add(ctx context.Context, e domdoc.Entry) error {
	key := r.key(e.ID)
	if err := r.store.HSet(ctx, key, buildHashFields(e)); err != nil {
		return translate(fmt.Errorf("hset %s: %w", key, err))
	}
	return nil
}

// Get returns the stored entry for id.
func (r *Repo) Get(ctx context.Context, id int64) (domdoc.Entry, error) {
	key := r.key(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Entry{}, domain.ErrDocumentNotFound
		}
		return domdoc.Entry{}, translate(fmt.Errorf("hgetall %s: %w", key, err))
	}
	return parseHashFields(id, m), nil
}

// Delete removes the entry for id. An absent entry is not an error.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	key := r.key(id)
	if err := r.store.Del(ctx, key); err != nil {
		return translate(fmt.Errorf("del %s: %w", key, err))
	}
	return nil
}

// ListIDs returns the ids of every entry under the prefix.
// Keys that do not carry a numeric id are skipped.
func (r *Repo) ListIDs(ctx context.Context) ([]int64, error) {
	keys, err := r.store.Scan(ctx, r.prefix+"*")
	if err != nil {
		return nil, translate(fmt.Errorf("scan %s*: %w", r.prefix, err))
	}
	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		if id, ok := r.parseKey(k); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Cursor starts a lazy search for up to limit ids matching text, in
// relevance order. Nothing is sent to the backend until the first Next.
func (r *Repo) Cursor(text string, limit int) *Cursor {
	return &Cursor{repo: r, text: text, remaining: max(limit, 0)}
}

// Query is the range-over-func form of Cursor. A failure is yielded once
// as the final pair with a zero id.
func (r *Repo) Query(ctx context.Context, text string, limit int) iter.Seq2[int64, error] {
	return func(yield func(int64, error) bool) {
		c := r.Cursor(text, limit)
		for c.Next(ctx) {
			if !yield(c.ID(), nil) {
				return
			}
		}
		if err := c.Err(); err != nil {
			yield(0, err)
		}
	}
}

// translate maps backend errors onto domain errors.
func translate(err error) error {
	switch {
	case errors.Is(err, db.ErrIndexNotFound):
		return fmt.Errorf("%w: %w", domain.ErrIndexNotFound, err)
	case errors.Is(err, db.ErrUnavailable):
		return fmt.Errorf("%w: %w", domain.ErrIndexUnavailable, err)
	default:
		return err
	}
}
