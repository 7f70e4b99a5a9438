package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound    = errors.New("db: key not found")
	ErrIndexNotFound  = errors.New("db: index not found")
	ErrIndexExists    = errors.New("db: index already exists")
	ErrRecordNotFound = errors.New("db: record not found")
	ErrConflict       = errors.New("db: constraint violation")
	ErrUnavailable    = errors.New("db: backend unavailable")
)

// Op constants name the failing backend operation for error context.
const (
	OpCreateIndex = "FT.CREATE"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpDel         = "DEL"
	OpHGetAll     = "HGETALL"
	OpHSet        = "HSET"
	OpScan        = "SCAN"

	OpMigrate = "MIGRATE"
	OpInsert  = "INSERT"
	OpSelect  = "SELECT"
	OpDelete  = "DELETE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
