package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrConflict signals a record store integrity violation.
	ErrConflict = errors.New("conflict")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrIndexUnavailable signals that the search index cannot be reached.
	ErrIndexUnavailable = errors.New("search index unavailable")
	// ErrIndexNotFound signals that the search index has not been created yet.
	ErrIndexNotFound = errors.New("search index not found")
	// ErrNothingToAdd signals an empty batch.
	ErrNothingToAdd = errors.New("nothing to add")
	// ErrUpstream signals a failing third-party file source.
	ErrUpstream = errors.New("upstream unavailable")
)

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a validation error for a field.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RowError reports a failure parsing one input row. Rows are numbered from 1,
// not counting the header.
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

// Unwrap exposes both the row cause and ErrValidation.
func (e *RowError) Unwrap() []error { return []error{ErrValidation, e.Err} }
