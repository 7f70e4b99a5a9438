package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsync/internal/domain"
	dombatch "github.com/kailas-cloud/docsync/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
	"github.com/kailas-cloud/docsync/internal/logger"
	"github.com/kailas-cloud/docsync/internal/metrics"
)

// Sources label where a file came from.
const (
	SourceUpload     = "upload"
	SourceYandexDisk = "yandex_disk"
	SourceLocal      = "local"
)

// Formats.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Service turns tabular files into documents and hands them to the
// synchronization service in one batch.
type Service struct {
	docs       Creator
	downloader Downloader
	tempDir    string
	defaultSep string
}

// New creates an ingestion service. downloader may be nil when remote
// sources are disabled.
func New(docs Creator, downloader Downloader) *Service {
	return &Service{docs: docs, downloader: downloader, tempDir: os.TempDir()}
}

// WithTempDir sets where uploads and downloads are spooled.
func (s *Service) WithTempDir(dir string) *Service {
	if dir != "" {
		s.tempDir = dir
	}
	return s
}

// WithDefaultSeparator sets the separator used when a request names none.
func (s *Service) WithDefaultSeparator(sep string) *Service {
	s.defaultSep = sep
	return s
}

func (s *Service) separator(sep string) (rune, error) {
	if sep == "" {
		sep = s.defaultSep
	}
	return ParseSeparator(sep)
}

// IngestReader spools r to a temp file and ingests it.
func (s *Service) IngestReader(ctx context.Context, r io.Reader, separator string) (dombatch.Result, error) {
	sep, err := s.separator(separator)
	if err != nil {
		return dombatch.Result{}, err
	}
	path, cleanup, err := s.spool(func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
	if err != nil {
		return dombatch.Result{}, fmt.Errorf("spool upload: %w", err)
	}
	defer cleanup()

	return s.ingest(ctx, path, sep, SourceUpload)
}

// IngestRemote downloads a public share link and ingests the file.
func (s *Service) IngestRemote(ctx context.Context, link, separator string) (dombatch.Result, error) {
	if s.downloader == nil {
		return dombatch.Result{}, errors.New("remote ingestion is not configured")
	}
	if link == "" {
		return dombatch.Result{}, domain.NewValidation("diskLink", "is required")
	}
	sep, err := s.separator(separator)
	if err != nil {
		return dombatch.Result{}, err
	}

	path, cleanup, err := s.spool(func(w io.Writer) error {
		n, err := s.downloader.Download(ctx, link, w)
		if err == nil {
			logger.FromContext(ctx).Debug("file downloaded", zap.Int64("bytes", n))
		}
		return err
	})
	if err != nil {
		return dombatch.Result{}, fmt.Errorf("download %s: %w", link, err)
	}
	defer cleanup()

	return s.ingest(ctx, path, sep, SourceYandexDisk)
}

// IngestPath ingests a local file in place.
func (s *Service) IngestPath(ctx context.Context, path, separator string) (dombatch.Result, error) {
	sep, err := s.separator(separator)
	if err != nil {
		return dombatch.Result{}, err
	}
	return s.ingest(ctx, path, sep, SourceLocal)
}

func (s *Service) ingest(ctx context.Context, path string, sep rune, source string) (dombatch.Result, error) {
	docs, format, err := ReadFile(path, sep)
	if err != nil {
		return dombatch.Result{}, err
	}
	metrics.IngestedRowsTotal.WithLabelValues(source, format).Add(float64(len(docs)))

	res, err := s.docs.CreateMany(ctx, docs)
	if err != nil {
		return dombatch.Result{}, fmt.Errorf("create documents: %w", err)
	}
	logger.FromContext(ctx).Info("file ingested",
		zap.String("source", source),
		zap.String("format", format),
		zap.Int("attempted", res.Attempted()),
		zap.Int("index_failures", res.IndexFailures()),
	)
	return res, nil
}

// spool writes a new temp file through fill and returns its path with a
// cleanup func that removes it.
func (s *Service) spool(fill func(io.Writer) error) (string, func(), error) {
	path := filepath.Join(s.tempDir, uuid.NewString()+".tmp")
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(path) }

	if err := fill(f); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return path, cleanup, nil
}

// ReadFile parses a CSV or parquet file, sniffing the format from its
// first bytes.
func ReadFile(path string, sep rune) ([]domdoc.Document, string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", path, err)
	}

	head := make([]byte, len(parquetMagic))
	n, _ := io.ReadFull(f, head)
	if isParquet(head[:n]) {
		docs, err := ReadParquet(f, stat.Size())
		return docs, FormatParquet, err
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("rewind %s: %w", path, err)
	}
	docs, err := ReadCSV(f, sep)
	return docs, FormatCSV, err
}
