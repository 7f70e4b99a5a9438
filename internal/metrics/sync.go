package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Store/index synchronization Prometheus metrics.
var (
	DocumentsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsync",
			Name:      "documents_written_total",
			Help:      "Documents committed to the record store",
		},
		[]string{"op"}, // "create_one" / "create_many"
	)

	IndexWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsync",
			Name:      "index_writes_total",
			Help:      "Search index writes by outcome",
		},
		[]string{"op", "status"}, // op: add / add_many / delete; status: ok / error
	)

	SearchResultsTotal = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "docsync",
			Name:      "search_results",
			Help:      "Documents returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20},
		},
	)

	IngestedRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docsync",
			Name:      "ingested_rows_total",
			Help:      "Rows parsed from uploaded files",
		},
		[]string{"source", "format"},
	)
)

var registerSync sync.Once

// RegisterSyncMetrics registers the synchronization metrics with the default
// registry. Repeated calls are no-ops.
func RegisterSyncMetrics() {
	registerSync.Do(func() {
		prometheus.MustRegister(DocumentsWrittenTotal, IndexWritesTotal, SearchResultsTotal, IngestedRowsTotal)
	})
}
