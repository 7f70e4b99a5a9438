package db

// TextQuery is the input for a full-text search page.
type TextQuery struct {
	IndexName string
	Field     string // TEXT field to match; empty matches all TEXT fields
	Query     string
	Offset    int
	Limit     int
	// NoContent returns keys only.
	NoContent    bool
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
