package redis

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docsync/internal/db"
)

// scanCount is the COUNT hint sent with every SCAN page.
const scanCount = 500

// hset builds HSET key f1 v1 f2 v2 ... with fields in name order, so the
// same hash always renders the same command.
func (s *Store) hset(key string, fields map[string]string) rueidis.Completed {
	cmd := s.b().Hset().Key(key).FieldValue()
	for _, name := range slices.Sorted(maps.Keys(fields)) {
		cmd = cmd.FieldValue(name, fields[name])
	}
	return cmd.Build()
}

// HSet writes one hash.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if err := s.do(ctx, s.hset(key, fields)).Error(); err != nil {
		return opErr(db.OpHSet, fmt.Errorf("key %s: %w", key, err))
	}
	return nil
}

// HSetMulti pipelines one HSET per item in a single DoMulti call.
// errs[i] is nil when items[i] was written.
func (s *Store) HSetMulti(ctx context.Context, items []db.HashSetItem) (errs []error) {
	if len(items) == 0 {
		return nil
	}
	cmds := make(rueidis.Commands, 0, len(items))
	for _, it := range items {
		cmds = append(cmds, s.hset(it.Key, it.Fields))
	}

	errs = make([]error, len(items))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			errs[i] = opErr(db.OpHSet, fmt.Errorf("key %s: %w", items[i].Key, err))
		}
	}
	return errs
}

// HGetAll reads a whole hash. Redis answers an empty map for a missing key,
// which is reported as db.ErrKeyNotFound.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.do(ctx, s.b().Hgetall().Key(key).Build()).AsStrMap()
	switch {
	case err != nil:
		return nil, opErr(db.OpHGetAll, err)
	case len(fields) == 0:
		return nil, db.ErrKeyNotFound
	}
	return fields, nil
}

// Del removes key; a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.do(ctx, s.b().Del().Key(key).Build()).Error(); err != nil {
		return opErr(db.OpDel, err)
	}
	return nil
}

// Scan walks the keyspace with SCAN MATCH pattern until the cursor wraps.
// Keys may repeat across pages, so the result is de-duplicated.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	seen := make(map[string]struct{})
	var keys []string
	for cursor := uint64(0); ; {
		cmd := s.b().Scan().Cursor(cursor).Match(pattern).Count(scanCount).Build()
		page, err := s.do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, opErr(db.OpScan, err)
		}
		for _, k := range page.Elements {
			if _, dup := seen[k]; !dup {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
		if cursor = page.Cursor; cursor == 0 {
			return keys, nil
		}
	}
}
