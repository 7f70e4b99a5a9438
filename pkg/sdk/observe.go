package docsync

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/docsync/internal/domain"
)

// callMetrics counts client calls by outcome and records their latency.
type callMetrics struct {
	calls   *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func newCallMetrics(reg prometheus.Registerer) (*callMetrics, error) {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "docsync",
		Subsystem: "sdk",
		Name:      "calls_total",
		Help:      "Embedded client calls by method and outcome.",
	}, []string{"method", "outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "docsync",
		Subsystem: "sdk",
		Name:      "call_duration_seconds",
		Help:      "Embedded client call latency.",
		Buckets:   []float64{0.001, 0.005, 0.025, 0.1, 0.5, 2, 10, 60},
	}, []string{"method"})

	var err error
	if calls, err = adopt(reg, calls); err != nil {
		return nil, err
	}
	if latency, err = adopt(reg, latency); err != nil {
		return nil, err
	}
	return &callMetrics{calls: calls, latency: latency}, nil
}

// adopt registers c, or returns the collector another client already
// registered under the same name.
func adopt[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var dup prometheus.AlreadyRegisteredError
	if !errors.As(err, &dup) {
		return c, fmt.Errorf("docsync: register metric: %w", err)
	}
	prev, ok := dup.ExistingCollector.(T)
	if !ok {
		return c, fmt.Errorf("docsync: metric registered as %T", dup.ExistingCollector)
	}
	return prev, nil
}

// outcome buckets an error into a low-cardinality label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNothingToAdd):
		return "empty"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrDocumentNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrIndexUnavailable), errors.Is(err, domain.ErrUpstream):
		return "unavailable"
	default:
		return "error"
	}
}

type observer struct {
	logger  *slog.Logger
	metrics *callMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newCallMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

func (o *observer) observe(method string, start time.Time, err error) {
	if o == nil {
		return
	}
	elapsed := time.Since(start)
	result := outcome(err)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(method, result).Inc()
		o.metrics.latency.WithLabelValues(method).Observe(elapsed.Seconds())
	}
	if o.logger == nil {
		return
	}
	switch result {
	case "ok", "empty", "not_found":
		o.logger.Debug("docsync call", "method", method, "outcome", result, "elapsed", elapsed)
	default:
		o.logger.Warn("docsync call failed", "method", method, "outcome", result, "elapsed", elapsed, "error", err)
	}
}
