// Package metrics provides Prometheus metrics collection for HTTP server
// and label check monitoring. It exports HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// plus domain metrics for the check pipeline and the catalog refresh cycle.
//
// All metrics are automatically registered with the Prometheus default registry
// during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	LabelChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "label_checks_total",
			Help: "Labels checked, by check kind and outcome",
		},
		[]string{"check", "valid"},
	)

	VerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingredient_verdicts_total",
			Help: "Ingredient verdicts produced, by status",
		},
		[]string{"status"},
	)

	CatalogEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Rows in the loaded regulatory catalog, by table",
		},
		[]string{"table"},
	)

	CatalogRefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_refresh_duration_seconds",
			Help:    "Time spent reloading the regulatory catalog",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(LabelChecksTotal)
	prometheus.MustRegister(VerdictsTotal)
	prometheus.MustRegister(CatalogEntries)
	prometheus.MustRegister(CatalogRefreshDuration)
}

// RecordCatalogCounts refreshes the per-table gauge after a catalog swap.
func RecordCatalogCounts(counts map[string]int) {
	for table, n := range counts {
		CatalogEntries.WithLabelValues(table).Set(float64(n))
	}
}
