package batch

// Result summarizes a multi-document create.
// Store writes are all-or-nothing, so Attempted documents are all stored;
// IndexFailures counts those whose index entry could not be written.
type Result struct {
	attempted     int
	indexFailures int
}

// NewResult creates a batch result.
func NewResult(attempted, indexFailures int) Result {
	return Result{attempted: attempted, indexFailures: indexFailures}
}

// Attempted returns the number of documents stored.
func (r Result) Attempted() int { return r.attempted }

// IndexFailures returns the number of documents missing from the index.
func (r Result) IndexFailures() int { return r.indexFailures }

// Indexed returns the number of documents indexed successfully.
func (r Result) Indexed() int { return r.attempted - r.indexFailures }

// Partial reports whether some index writes failed.
func (r Result) Partial() bool { return r.indexFailures > 0 }
