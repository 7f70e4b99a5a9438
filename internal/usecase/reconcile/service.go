// Package reconcile converges the search index onto the record store.
//
// A pass re-adds stored documents that have no index entry and drops index
// entries whose document is gone. It closes the windows left by the
// non-atomic create and delete paths.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/docsync/internal/domain"
	domdoc "github.com/kailas-cloud/docsync/internal/domain/document"
)

const (
	otelScope       = "docsync/reconcile"
	spanPass        = "reconcile.pass"
	metricScanned   = "docsync.reconcile.scanned"
	metricReindexed = "docsync.reconcile.reindexed"
	metricOrphans   = "docsync.reconcile.orphans"
	metricErrors    = "docsync.reconcile.errors"

	defaultPageSize = 500
)

// Stats summarizes one pass.
type Stats struct {
	Scanned   int // stored documents visited
	Reindexed int // index entries written
	Orphans   int // index entries removed
	Errors    int
}

// Service runs reconcile passes.
type Service struct {
	store    Store
	index    Index
	pageSize int
	limiter  *rate.Limiter
	verify   bool
	logger   *zap.Logger

	tracer       trace.Tracer
	otelLog      otellog.Logger
	cntScanned   metric.Int64Counter
	cntReindexed metric.Int64Counter
	cntOrphans   metric.Int64Counter
	cntErrors    metric.Int64Counter
}

// New creates a reconcile service with no write pacing.
func New(store Store, index Index, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := otel.Meter(otelScope)
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		if err != nil {
			logger.Error("create otel counter", zap.String("name", name), zap.Error(err))
			return noop.Int64Counter{}
		}
		return c
	}

	return &Service{
		store:    store,
		index:    index,
		pageSize: defaultPageSize,
		limiter:  rate.NewLimiter(rate.Inf, 1),
		logger:   logger,

		tracer:       otel.Tracer(otelScope),
		otelLog:      global.Logger(otelScope),
		cntScanned:   counter(metricScanned, "Stored documents visited by reconcile"),
		cntReindexed: counter(metricReindexed, "Index entries rewritten by reconcile"),
		cntOrphans:   counter(metricOrphans, "Orphan index entries removed by reconcile"),
		cntErrors:    counter(metricErrors, "Errors during reconcile"),
	}
}

// WithPageSize sets how many store ids are read per page.
func (s *Service) WithPageSize(n int) *Service {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

// WithRate limits index writes to perSecond. Zero or less means unlimited.
func (s *Service) WithRate(perSecond float64, burst int) *Service {
	if perSecond <= 0 {
		s.limiter = rate.NewLimiter(rate.Inf, 1)
		return s
	}
	s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	return s
}

// WithVerifyText also compares index text against the store and rewrites
// stale entries. It costs one index read per document.
func (s *Service) WithVerifyText(v bool) *Service {
	s.verify = v
	return s
}

// Run performs a pass immediately and then every interval until ctx ends.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Error("reconcile pass failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce performs one pass, recording a span and counters.
func (s *Service) RunOnce(ctx context.Context) (Stats, error) {
	ctx, span := s.tracer.Start(ctx, spanPass)
	defer span.End()

	start := time.Now()
	stats, err := s.pass(ctx)

	s.cntScanned.Add(ctx, int64(stats.Scanned))
	s.cntReindexed.Add(ctx, int64(stats.Reindexed))
	s.cntOrphans.Add(ctx, int64(stats.Orphans))
	s.cntErrors.Add(ctx, int64(stats.Errors))

	span.SetAttributes(
		attribute.Int("reconcile.scanned", stats.Scanned),
		attribute.Int("reconcile.reindexed", stats.Reindexed),
		attribute.Int("reconcile.orphans", stats.Orphans),
		attribute.Int("reconcile.errors", stats.Errors),
	)
	if err != nil {
		span.RecordError(err)
	}
	s.emit(ctx, stats, err)

	fields := []zap.Field{
		zap.Int("scanned", stats.Scanned),
		zap.Int("reindexed", stats.Reindexed),
		zap.Int("orphans", stats.Orphans),
		zap.Int("errors", stats.Errors),
		zap.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		s.logger.Warn("reconcile pass aborted", append(fields, zap.Error(err))...)
	} else {
		s.logger.Info("reconcile pass done", fields...)
	}
	return stats, err
}

func (s *Service) pass(ctx context.Context) (Stats, error) {
	var stats Stats

	indexed, err := s.indexedIDs(ctx)
	if err != nil {
		return stats, err
	}

	var after int64
	for {
		ids, err := s.store.ListIDs(ctx, after, s.pageSize)
		if err != nil {
			return stats, fmt.Errorf("list store ids: %w", err)
		}
		if len(ids) == 0 {
			break
		}
		after = ids[len(ids)-1]
		stats.Scanned += len(ids)

		if err := s.repairPage(ctx, ids, indexed, &stats); err != nil {
			return stats, err
		}
		if len(ids) < s.pageSize {
			break
		}
	}

	for id := range indexed {
		if err := s.limiter.Wait(ctx); err != nil {
			return stats, fmt.Errorf("wait: %w", err)
		}
		if err := s.index.Delete(ctx, id); err != nil {
			stats.Errors++
			s.logger.Warn("drop orphan failed", zap.Int64("id", id), zap.Error(err))
			continue
		}
		stats.Orphans++
	}
	return stats, nil
}

func (s *Service) indexedIDs(ctx context.Context) (map[int64]struct{}, error) {
	ids, err := s.index.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list index ids: %w", err)
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// repairPage re-adds page documents missing from the index and removes
// them from indexed, leaving only orphans there once the walk ends.
func (s *Service) repairPage(ctx context.Context, ids []int64, indexed map[int64]struct{}, stats *Stats) error {
	var hydrate []int64
	for _, id := range ids {
		_, ok := indexed[id]
		delete(indexed, id)
		if !ok || s.verify {
			hydrate = append(hydrate, id)
		}
	}
	if len(hydrate) == 0 {
		return nil
	}

	docs, err := s.store.GetManyByIDs(ctx, hydrate, len(hydrate))
	if err != nil {
		return fmt.Errorf("hydrate documents: %w", err)
	}
	for i := range docs {
		entry := docs[i].Entry()
		if s.verify && !s.stale(ctx, entry) {
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait: %w", err)
		}
		if err := s.index.Add(ctx, entry); err != nil {
			stats.Errors++
			s.logger.Warn("reindex failed", zap.Int64("id", entry.ID), zap.Error(err))
			continue
		}
		stats.Reindexed++
	}
	return nil
}

// stale reports whether the index entry is missing or differs from e.
func (s *Service) stale(ctx context.Context, e domdoc.Entry) bool {
	got, err := s.index.Get(ctx, e.ID)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return true
	}
	if err != nil {
		s.logger.Debug("index read failed, rewriting", zap.Int64("id", e.ID), zap.Error(err))
		return true
	}
	return got.Text != e.Text
}

func (s *Service) emit(ctx context.Context, stats Stats, err error) {
	var rec otellog.Record
	rec.SetTimestamp(time.Now())
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("reconcile pass"))
	rec.AddAttributes(
		otellog.Int("scanned", stats.Scanned),
		otellog.Int("reindexed", stats.Reindexed),
		otellog.Int("orphans", stats.Orphans),
		otellog.Int("errors", stats.Errors),
	)
	if err != nil {
		rec.SetSeverity(otellog.SeverityWarn)
		rec.AddAttributes(otellog.String("error", err.Error()))
	}
	s.otelLog.Emit(ctx, rec)
}
