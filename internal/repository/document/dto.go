package document

import (
	"time"

	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

// row is the gorm model of the documents table.
type row struct {
	ID          int64     `gorm:"primaryKey;autoIncrement"`
	Rubrics     []string  `gorm:"serializer:json;type:text;not null"`
	Text        string    `gorm:"type:text;not null"`
	CreatedDate time.Time `gorm:"type:timestamp;not null;index:idx_documents_created_date"`
}

// TableName pins the table name.
func (row) TableName() string { return "documents" }

// Model exposes the table model for migrations.
func Model() any { return &row{} }

func toRow(doc *domdoc.Document) row {
	rubrics := doc.Rubrics()
	if rubrics == nil {
		rubrics = []string{}
	}
	return row{
		ID:          doc.ID(),
		Rubrics:     rubrics,
		Text:        doc.Text(),
		CreatedDate: doc.CreatedDate(),
	}
}

func fromRow(r *row) domdoc.Document {
	return domdoc.Reconstruct(r.ID, r.Rubrics, r.Text, domdoc.NormalizeTime(r.CreatedDate))
}
