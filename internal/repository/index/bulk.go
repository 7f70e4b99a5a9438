package index

import (
	"context"
	"iter"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docsync/internal/db"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

// Ack is the outcome of indexing one entry in a bulk run.
type Ack struct {
	Entry domdoc.Entry
	Err   error
}

// Bulk feeds entries into a chunked pipeline and yields one Ack per entry
// as each chunk completes. Entries are pulled lazily; at most one chunk is
// held in memory.
func (r *Repo) Bulk(ctx context.Context, entries iter.Seq[domdoc.Entry]) iter.Seq[Ack] {
	return func(yield func(Ack) bool) {
		chunk := make([]domdoc.Entry, 0, r.chunkSize)

		flush := func() bool {
			items := make([]db.HashSetItem, len(chunk))
			for i, e := range chunk {
				items[i] = db.HashSetItem{Key: r.key(e.ID), Fields: buildHashFields(e)}
			}
			errs := r.store.HSetMulti(ctx, items)
			for i, e := range chunk {
				var err error
				if i < len(errs) && errs[i] != nil {
					err = translate(errs[i])
				}
				if !yield(Ack{Entry: e, Err: err}) {
					return false
				}
			}
			chunk = chunk[:0]
			return true
		}

		for e := range entries {
			chunk = append(chunk, e)
			if len(chunk) == r.chunkSize && !flush() {
				return
			}
		}
		if len(chunk) > 0 {
			flush()
		}
	}
}

// AddMany indexes every entry and returns how many failed. Failures are
// logged with their payload and never abort the run.
func (r *Repo) AddMany(ctx context.Context, entries iter.Seq[domdoc.Entry]) int {
	failed := 0
	for ack := range r.Bulk(ctx, entries) {
		if ack.Err == nil {
			continue
		}
		failed++
		r.logger.Warn("bulk index item failed",
			zap.String("action", "index"),
			zap.String("index", r.name),
			zap.Int64("id", ack.Entry.ID),
			zap.String("text", truncate(ack.Entry.Text, 256)),
			zap.Error(ack.Err),
		)
	}
	return failed
}

// truncate shortens s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
