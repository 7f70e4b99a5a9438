package index

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/docsync/internal/db"
)

// Cursor yields matching ids one at a time, fetching result pages on
// demand. It is single-use: once exhausted or failed it stays that way.
type Cursor struct {
	repo      *Repo
	text      string
	remaining int

	offset int
	buf    []int64
	cur    int64
	last   bool
	done   bool
	err    error
}

// Next advances to the next id. It returns false when the results are
// exhausted, the limit is reached, or an error occurred (see Err).
func (c *Cursor) Next(ctx context.Context) bool {
	if c.done {
		return false
	}
	if c.remaining == 0 {
		c.done = true
		return false
	}
	if len(c.buf) == 0 {
		if !c.fetch(ctx) {
			c.done = true
			return false
		}
	}
	c.cur, c.buf = c.buf[0], c.buf[1:]
	c.remaining--
	return true
}

// ID returns the id at the current position.
func (c *Cursor) ID() int64 { return c.cur }

// Err returns the error that stopped iteration, if any.
func (c *Cursor) Err() error { return c.err }

func (c *Cursor) fetch(ctx context.Context) bool {
	for len(c.buf) == 0 {
		if c.last {
			return false
		}
		page := min(c.repo.pageSize, c.remaining)
		res, err := c.repo.store.SearchText(ctx, &db.TextQuery{
			IndexName: c.repo.name,
			Field:     fieldText,
			Query:     c.text,
			Offset:    c.offset,
			Limit:     page,
			NoContent: true,
		})
		if err != nil {
			c.err = translate(fmt.Errorf("search %s: %w", c.repo.name, err))
			return false
		}
		c.offset += len(res.Entries)
		c.last = len(res.Entries) < page || c.offset >= res.Total
		for _, e := range res.Entries {
			if id, ok := c.repo.parseKey(e.Key); ok {
				c.buf = append(c.buf, id)
			}
		}
	}
	return true
}
