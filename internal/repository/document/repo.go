package document

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kailas-cloud/docsync/internal/db"
	"github.com/kailas-cloud/docsync/internal/db/sqldb"
	"github.com/kailas-cloud/docsync/internal/domain"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

// insertBatchSize bounds the rows per INSERT statement inside one transaction.
const insertBatchSize = 500

// Repo is the record store for documents.
type Repo struct {
	db *gorm.DB
}

// New creates a document repository over a gorm handle.
func New(gdb *gorm.DB) *Repo {
	return &Repo{db: gdb}
}

// Migrate creates the documents table.
func (r *Repo) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(Model()); err != nil {
		return translate(sqldb.TranslateError(db.OpMigrate, err))
	}
	return nil
}

// Insert stores one document in its own commit and returns it with the
// assigned id.
func (r *Repo) Insert(ctx context.Context, doc *domdoc.Document) (domdoc.Document, error) {
	rec := toRow(doc)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return domdoc.Document{}, translate(sqldb.TranslateError(db.OpInsert, err))
	}
	return doc.WithID(rec.ID), nil
}

// InsertMany stores all documents in a single transaction. Any failure
// rolls back the whole batch.
func (r *Repo) InsertMany(ctx context.Context, docs []domdoc.Document) ([]domdoc.Document, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	rows := make([]row, len(docs))
	for i := range docs {
		rows[i] = toRow(&docs[i])
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&rows, insertBatchSize).Error
	})
	if err != nil {
		return nil, translate(sqldb.TranslateError(db.OpInsert, err))
	}

	out := make([]domdoc.Document, len(docs))
	for i := range docs {
		out[i] = docs[i].WithID(rows[i].ID)
	}
	return out, nil
}

// GetByID returns the document or domain.ErrDocumentNotFound.
func (r *Repo) GetByID(ctx context.Context, id int64) (domdoc.Document, error) {
	var rec row
	if err := r.db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return domdoc.Document{}, translate(sqldb.TranslateError(db.OpSelect, err))
	}
	return fromRow(&rec), nil
}

// GetManyByIDs returns the documents among ids, newest first, at most limit.
// Unknown ids are skipped.
func (r *Repo) GetManyByIDs(ctx context.Context, ids []int64, limit int) ([]domdoc.Document, error) {
	if len(ids) == 0 || limit <= 0 {
		return []domdoc.Document{}, nil
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_date DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, translate(sqldb.TranslateError(db.OpSelect, err))
	}

	docs := make([]domdoc.Document, len(rows))
	for i := range rows {
		docs[i] = fromRow(&rows[i])
	}
	return docs, nil
}

// Delete looks the document up and deletes it in one transaction.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec row
		if err := tx.Select("id").First(&rec, id).Error; err != nil {
			return err
		}
		return tx.Delete(&row{}, id).Error
	})
	if err != nil {
		return translate(sqldb.TranslateError(db.OpDelete, err))
	}
	return nil
}

// ListIDs returns up to n ids greater than afterID in ascending order.
func (r *Repo) ListIDs(ctx context.Context, afterID int64, n int) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&row{}).
		Where("id > ?", afterID).
		Order("id").
		Limit(n).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, translate(sqldb.TranslateError(db.OpSelect, err))
	}
	return ids, nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, db.ErrRecordNotFound):
		return domain.ErrDocumentNotFound
	case errors.Is(err, db.ErrConflict):
		return fmt.Errorf("%w: %w", domain.ErrConflict, err)
	default:
		return err
	}
}
