package ingestion

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/docsync/internal/domain"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

// DefaultSeparator is the CSV field separator when none is given.
const DefaultSeparator = ','

// Column names recognized in tabular input.
const (
	colRubrics    = "rubrics"
	colText       = "text"
	colCreated    = "created_date"
	colCreatedAlt = "createdDate"
)

// ParseSeparator validates a user-supplied separator.
// Empty input selects DefaultSeparator.
func ParseSeparator(s string) (rune, error) {
	if s == "" {
		return DefaultSeparator, nil
	}
	if s == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, domain.NewValidation("separator", "must be a single character")
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, domain.NewValidation("separator", fmt.Sprintf("%q is not allowed", r))
	}
	return r, nil
}

// ParseRubrics decodes a list literal such as ['a', "b"].
// Single and double quotes are interchangeable; an empty cell is no rubrics.
func ParseRubrics(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(strings.ReplaceAll(s, "'", `"`)), &out); err != nil {
		return nil, fmt.Errorf("rubrics %q is not a list of strings", s)
	}
	return out, nil
}

// columns maps header names to field positions.
type columns struct {
	rubrics, text, created int
}

func resolveColumns(header []string) (columns, error) {
	c := columns{rubrics: -1, text: -1, created: -1}
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case colRubrics:
			c.rubrics = i
		case colText:
			c.text = i
		case colCreated, colCreatedAlt:
			c.created = i
		}
	}
	switch {
	case c.rubrics < 0:
		return c, domain.NewValidation(colRubrics, "column is missing")
	case c.text < 0:
		return c, domain.NewValidation(colText, "column is missing")
	case c.created < 0:
		return c, domain.NewValidation(colCreated, "column is missing")
	}
	return c, nil
}

func parseCreated(row int, s string) (time.Time, error) {
	ts, err := domdoc.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, &domain.RowError{Row: row, Err: fmt.Errorf("%s: %w", colCreated, err)}
	}
	return ts, nil
}

// buildDocument validates one row, tagging failures with its 1-based number.
func buildDocument(row int, rubrics []string, text string, created time.Time) (domdoc.Document, error) {
	doc, err := domdoc.New(rubrics, text, created)
	if err != nil {
		return domdoc.Document{}, &domain.RowError{Row: row, Err: err}
	}
	return doc, nil
}
