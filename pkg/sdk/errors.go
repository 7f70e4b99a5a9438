package docsync

import "github.com/kailas-cloud/docsync/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrValidation       = domain.ErrValidation
	ErrConflict         = domain.ErrConflict
	ErrDocumentNotFound = domain.ErrDocumentNotFound
	ErrIndexUnavailable = domain.ErrIndexUnavailable
	ErrNothingToAdd     = domain.ErrNothingToAdd
	ErrUpstream         = domain.ErrUpstream
)
