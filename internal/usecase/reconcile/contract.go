package reconcile

import (
	"context"

	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

// Store walks the record store.
type Store interface {
	ListIDs(ctx context.Context, afterID int64, n int) ([]int64, error)
	GetManyByIDs(ctx context.Context, ids []int64, limit int) ([]domdoc.Document, error)
}

// Index lists and repairs index entries.
type Index interface {
	ListIDs(ctx context.Context) ([]int64, error)
	Get(ctx context.Context, id int64) (domdoc.Entry, error)
	Add(ctx context.Context, e domdoc.Entry) error
	Delete(ctx context.Context, id int64) error
}
