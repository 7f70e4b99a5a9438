package ingestion

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/docsync/internal/domain"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

// parquetMagic opens and closes every parquet file.
const parquetMagic = "PAR1"

const parquetBatch = 256

// ReadParquet parses a parquet file with rubrics, text and created_date
// columns. rubrics may be a list column or a string holding a list literal;
// created_date may be a string or a TIMESTAMP column.
func ReadParquet(r io.ReaderAt, size int64) ([]domdoc.Document, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, domain.NewValidation("file", fmt.Sprintf("open parquet: %v", err))
	}

	paths := pf.Schema().Columns()
	header := make([]string, len(paths))
	for i, p := range paths {
		header[i] = p[0]
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}
	rubricsIsList := isRepeated(pf, paths[cols.rubrics])
	unit := timestampUnit(pf, paths[cols.created])

	var docs []domdoc.Document
	row := 0
	buf := make([]parquet.Row, parquetBatch)

	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := range n {
				row++
				doc, err := parquetDocument(row, buf[i], cols, rubricsIsList, unit)
				if err != nil {
					return nil, err
				}
				docs = append(docs, doc)
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return nil, &domain.RowError{Row: row + 1, Err: readErr}
			}
		}
	}
	return docs, nil
}

func parquetDocument(row int, values parquet.Row, cols columns, rubricsIsList bool, unit time.Duration) (domdoc.Document, error) {
	var (
		rubrics []string
		text    string
		created parquet.Value
	)
	for _, v := range values {
		switch v.Column() {
		case cols.rubrics:
			if !v.IsNull() {
				rubrics = append(rubrics, string(v.ByteArray()))
			}
		case cols.text:
			if !v.IsNull() {
				text = string(v.ByteArray())
			}
		case cols.created:
			created = v
		}
	}

	if !rubricsIsList {
		var literal string
		if len(rubrics) > 0 {
			literal = rubrics[0]
		}
		parsed, err := ParseRubrics(literal)
		if err != nil {
			return domdoc.Document{}, &domain.RowError{Row: row, Err: err}
		}
		rubrics = parsed
	}

	ts, err := parquetTime(row, created, unit)
	if err != nil {
		return domdoc.Document{}, err
	}
	return buildDocument(row, rubrics, text, ts)
}

func parquetTime(row int, v parquet.Value, unit time.Duration) (time.Time, error) {
	switch {
	case v.IsNull():
		return time.Time{}, &domain.RowError{Row: row, Err: fmt.Errorf("%s is empty", colCreated)}
	case v.Kind() == parquet.ByteArray:
		return parseCreated(row, string(v.ByteArray()))
	case v.Kind() == parquet.Int64 && unit > 0:
		return domdoc.NormalizeTime(time.Unix(0, v.Int64()*int64(unit)).UTC()), nil
	default:
		return time.Time{}, &domain.RowError{
			Row: row,
			Err: fmt.Errorf("%s has unsupported type %v", colCreated, v.Kind()),
		}
	}
}

func isRepeated(pf *parquet.File, path []string) bool {
	leaf, ok := pf.Schema().Lookup(path...)
	return ok && leaf.MaxRepetitionLevel > 0
}

// timestampUnit returns the tick of a TIMESTAMP column, or 0 for any
// other column type.
func timestampUnit(pf *parquet.File, path []string) time.Duration {
	leaf, ok := pf.Schema().Lookup(path...)
	if !ok {
		return 0
	}
	lt := leaf.Node.Type().LogicalType()
	if lt == nil || lt.Timestamp == nil {
		return 0
	}
	switch {
	case lt.Timestamp.Unit.Millis != nil:
		return time.Millisecond
	case lt.Timestamp.Unit.Nanos != nil:
		return time.Nanosecond
	default:
		return time.Microsecond
	}
}

// isParquet reports whether head starts with the parquet magic bytes.
func isParquet(head []byte) bool {
	return strings.HasPrefix(string(head), parquetMagic)
}
