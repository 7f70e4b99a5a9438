package docsync

import (
	"time"

	dombatch "github.com/kailas-cloud/docsync/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

// Document is a stored document. ID is assigned by the record store and
// ignored on create. CreatedDate is kept as wall-clock time; any zone
// offset is dropped without conversion.
type Document struct {
	ID          int64
	Rubrics     []string
	Text        string
	CreatedDate time.Time
}

// CreateResult is the outcome of Create.
type CreateResult struct {
	Document    Document
	IndexFailed bool
}

// BatchResult summarizes CreateMany and ImportFile. All Attempted documents
// are stored; IndexFailures of them are missing from the search index until
// the next Reconcile.
type BatchResult struct {
	Attempted     int
	IndexFailures int
}

// ReconcileStats summarizes one Reconcile pass.
type ReconcileStats struct {
	Scanned   int
	Reindexed int
	Orphans   int
	Errors    int
}

func toInternalDocument(d Document) (domdoc.Document, error) {
	return domdoc.New(d.Rubrics, d.Text, d.CreatedDate)
}

func fromInternalDocument(d *domdoc.Document) Document {
	return Document{
		ID:          d.ID(),
		Rubrics:     d.Rubrics(),
		Text:        d.Text(),
		CreatedDate: d.CreatedDate(),
	}
}

func fromBatch(r dombatch.Result) BatchResult {
	return BatchResult{Attempted: r.Attempted(), IndexFailures: r.IndexFailures()}
}
