package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/docsync/internal/db"
)

// SearchText runs one page of a full-text search via FT.SEARCH.
// Query terms are OR-ed; "*" matches every indexed document.
// An unknown index yields db.ErrIndexNotFound.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("offset and limit must be non-negative")
	}

	queryStr := buildTextQuery(q.Field, q.Query)
	if queryStr == "" {
		return &db.SearchResult{}, nil
	}

	args := []string{q.IndexName, queryStr}

	if q.NoContent {
		args = append(args, "NOCONTENT")
	} else if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isUnknownIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, opErr(db.OpSearch, err)
	}

	return parseReply(raw, !q.NoContent)
}

// parseReply decodes an FT.SEARCH reply. With NOCONTENT the reply is
// [total, key...]; otherwise [total, key, fields, key, fields...].
func parseReply(raw []rueidis.RedisMessage, withFields bool) (*db.SearchResult, error) {
	res := &db.SearchResult{}
	if len(raw) == 0 {
		return res, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	res.Total = int(total)

	stride := 1
	if withFields {
		stride = 2
	}
	res.Entries = make([]db.SearchEntry, 0, (len(raw)-1)/stride)
	for i := 1; i+stride-1 < len(raw); i += stride {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		entry := db.SearchEntry{Key: key}
		if withFields {
			pairs, err := raw[i+1].ToArray()
			if err != nil {
				continue
			}
			entry.Fields = parseFieldPairs(pairs)
		}
		res.Entries = append(res.Entries, entry)
	}
	return res, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// indexSeparators are the characters RediSearch splits TEXT fields on
// at index time, besides whitespace.
const indexSeparators = ",.<>{}[]\"':;!@#$%^&*()-+=~"

// queryTerms splits text the way the indexer tokenizes documents, so
// "covid-19" yields the terms "covid" and "19".
func queryTerms(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(indexSeparators, r)
	})
}

// buildTextQuery turns free text into an OR of escaped terms, optionally
// scoped to one field. Returns "" when the text has no terms.
func buildTextQuery(field, text string) string {
	if strings.TrimSpace(text) == "*" {
		return "*"
	}
	terms := queryTerms(text)
	if len(terms) == 0 {
		return ""
	}
	for i, t := range terms {
		terms[i] = escapeQuery(t)
	}
	expr := "(" + strings.Join(terms, "|") + ")"
	if field == "" {
		return expr
	}
	return "@" + field + ":" + expr
}

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`,`, `\,`,
	`.`, `\.`,
	`/`, `\/`,
	`'`, `\'`,
	`"`, `\"`,
	`:`, `\:`,
	`#`, `\#`,
	`&`, `\&`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
	`?`, `\?`,
)
