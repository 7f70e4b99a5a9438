package ingestion

import (
	"context"
	"io"

	dombatch "github.com/kailas-cloud/docsync/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

// Creator stores parsed documents and indexes them.
type Creator interface {
	CreateMany(ctx context.Context, docs []domdoc.Document) (dombatch.Result, error)
}

// Downloader resolves a public share link and streams the file to w.
type Downloader interface {
	Download(ctx context.Context, link string, w io.Writer) (int64, error)
}
