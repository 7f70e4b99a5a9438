package db

import (
	"errors"
	"fmt"
	"strings"
)

// IndexDefinition describes a full-text FT index over hash keys.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Language string // stemming language; empty keeps the server default
	Fields   []TextField
}

// TextField is one TEXT attribute of the index schema.
type TextField struct {
	Name   string
	Weight float64 // 0 keeps the server default of 1.0
	NoStem bool
}

// Validate checks that the definition can be sent to FT.CREATE.
func (idx *IndexDefinition) Validate() error {
	if !IsValidIdentifier(idx.Name) {
		return fmt.Errorf("invalid index name %q", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]struct{}, len(idx.Fields))
	for i, f := range idx.Fields {
		if !IsValidIdentifier(f.Name) {
			return fmt.Errorf("field %d: invalid name %q", i, f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		if f.Weight < 0 {
			return fmt.Errorf("field %q: negative weight", f.Name)
		}
	}
	return nil
}

// IsValidIdentifier reports whether s is non-empty and uses only
// letters, digits, '_', ':' and '-'.
func IsValidIdentifier(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_' || r == ':' || r == '-':
			return false
		}
		return true
	}) < 0
}
