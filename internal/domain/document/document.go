package document

import (
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/docsync/internal/domain"
)

// MaxTextSize is the maximum document text size in bytes.
const MaxTextSize = 1 << 20

// Document is the canonical record (immutable value object).
// The zero id marks a document that has not been stored yet.
type Document struct {
	id          int64
	rubrics     []string
	text        string
	createdDate time.Time
}

// New validates input and creates an unsaved Document.
// The creation date is normalized with NormalizeTime.
func New(rubrics []string, text string, createdDate time.Time) (Document, error) {
	if len(text) > MaxTextSize {
		return Document{}, domain.NewValidation("text", fmt.Sprintf("too large (max %d bytes)", MaxTextSize))
	}
	if createdDate.IsZero() {
		return Document{}, domain.NewValidation("created_date", "is required")
	}
	for i, r := range rubrics {
		if r == "" {
			return Document{}, domain.NewValidation(fmt.Sprintf("rubrics[%d]", i), "is empty")
		}
	}

	return Document{
		rubrics:     slices.Clone(rubrics),
		text:        text,
		createdDate: NormalizeTime(createdDate),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id int64, rubrics []string, text string, createdDate time.Time) Document {
	return Document{id: id, rubrics: rubrics, text: text, createdDate: createdDate}
}

// ID returns the store-assigned identifier.
func (d *Document) ID() int64 { return d.id }

// Rubrics returns the category labels in input order.
func (d *Document) Rubrics() []string { return d.rubrics }

// Text returns the searchable body text.
func (d *Document) Text() string { return d.text }

// CreatedDate returns the timezone-naive creation timestamp.
func (d *Document) CreatedDate() time.Time { return d.createdDate }

// WithID returns a copy carrying the store-assigned id.
func (d *Document) WithID(id int64) Document {
	return Document{id: id, rubrics: d.rubrics, text: d.text, createdDate: d.createdDate}
}

// Entry projects the document into its search index entry.
func (d *Document) Entry() Entry {
	return Entry{ID: d.id, Text: d.text}
}

// Entry is the search index projection of a Document.
type Entry struct {
	ID   int64
	Text string
}
