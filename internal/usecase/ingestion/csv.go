package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/kailas-cloud/docsync/internal/domain"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

// ReadCSV parses a CSV stream with a header row. The first failing row
// aborts the whole read.
func ReadCSV(r io.Reader, sep rune) ([]domdoc.Document, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.NewValidation("file", "is empty")
		}
		return nil, domain.NewValidation("file", fmt.Sprintf("bad header: %v", err))
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var docs []domdoc.Document
	for row := 1; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.RowError{Row: row, Err: err}
		}

		rubrics, err := ParseRubrics(rec[cols.rubrics])
		if err != nil {
			return nil, &domain.RowError{Row: row, Err: err}
		}
		created, err := parseCreated(row, rec[cols.created])
		if err != nil {
			return nil, err
		}
		doc, err := buildDocument(row, rubrics, rec[cols.text], created)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
