package redis

import (
	"context"
	"strconv"

	"github.com/kailas-cloud/docsync/internal/db"
)

// CreateIndex creates an FT index over hashes from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(buildCreateArgs(def)...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return opErr(db.OpCreateIndex, err)
	}
	return nil
}

// IndexExists probes index existence via FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isUnknownIndex(err) {
			return false, nil
		}
		return false, opErr(db.OpIndexInfo, err)
	}
	return true, nil
}

// buildCreateArgs renders
// <name> ON HASH [PREFIX n p...] [LANGUAGE l] SCHEMA f TEXT [WEIGHT w] [NOSTEM] ...
func buildCreateArgs(def *db.IndexDefinition) []string {
	args := []string{def.Name, "ON", "HASH"}
	if len(def.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
		args = append(args, def.Prefixes...)
	}
	if def.Language != "" {
		args = append(args, "LANGUAGE", def.Language)
	}

	args = append(args, "SCHEMA")
	for _, f := range def.Fields {
		args = append(args, f.Name, "TEXT")
		if f.Weight > 0 {
			args = append(args, "WEIGHT", strconv.FormatFloat(f.Weight, 'f', -1, 64))
		}
		if f.NoStem {
			args = append(args, "NOSTEM")
		}
	}
	return args
}
