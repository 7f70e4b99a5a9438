package document

import (
	"context"
	"iter"

	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

// Store is the system of record for documents.
type Store interface {
	Insert(ctx context.Context, doc *domdoc.Document) (domdoc.Document, error)
	InsertMany(ctx context.Context, docs []domdoc.Document) ([]domdoc.Document, error)
	GetByID(ctx context.Context, id int64) (domdoc.Document, error)
	GetManyByIDs(ctx context.Context, ids []int64, limit int) ([]domdoc.Document, error)
	Delete(ctx context.Context, id int64) error
}

// Index is the full-text projection of stored documents.
type Index interface {
	Add(ctx context.Context, e domdoc.Entry) error
	AddMany(ctx context.Context, entries iter.Seq[domdoc.Entry]) (failures int)
	Delete(ctx context.Context, id int64) error
	Query(ctx context.Context, text string, limit int) iter.Seq2[int64, error]
}
