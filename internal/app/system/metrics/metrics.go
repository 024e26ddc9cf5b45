// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingestion metrics.
var (
	IngestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadhub_ingest_runs_total",
		Help: "Lead upload batches by outcome",
	}, []string{"outcome"}) // ok, rejected, busy, error

	IngestRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadhub_ingest_rows_total",
		Help: "Rows processed by lead uploads, by result",
	}, []string{"result"}) // inserted, duplicate, failed

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "leadhub_ingest_duration_seconds",
		Help:    "Wall time of lead upload batches",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	})
)

// Bulk operation metrics.
var (
	BulkOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadhub_bulk_ops_total",
		Help: "Bulk lead operations by kind",
	}, []string{"op"})

	BulkModified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadhub_bulk_modified_total",
		Help: "Leads modified or deleted by bulk operations",
	}, []string{"op"})
)

// Cache metrics.
var (
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadhub_cache_hits_total",
		Help: "Cache hits by view",
	}, []string{"view"})

	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "leadhub_cache_misses_total",
		Help: "Cache misses by view",
	}, []string{"view"})
)

// ObserveCache records a cache lookup for view.
func ObserveCache(view string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(view).Inc()
		return
	}
	CacheMisses.WithLabelValues(view).Inc()
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
