// Package metrics exposes Prometheus instrumentation for upstream requests
// and batch imports. Batch commands are short-lived, so the registry is
// written to a node-exporter textfile at the end of a run instead of being
// scraped.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream Metrics
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcs_upstream_requests_total",
			Help: "Total number of Screenscraper requests by endpoint and HTTP status",
		},
		[]string{"endpoint", "status"}, // status is the HTTP code or "error" for transport failures
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rcs_upstream_request_duration_seconds",
			Help:    "Duration of Screenscraper requests in seconds, excluding rate limiter waits",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"endpoint"},
	)

	// Import Metrics
	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcs_imports_total",
			Help: "Total number of processed items by category and outcome",
		},
		[]string{"category", "outcome"}, // created, updated, exists, skipped, failed
	)

	ImportRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcs_import_retries_total",
			Help: "Total number of item retry attempts",
		},
		[]string{"category"},
	)

	ImportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rcs_import_duration_seconds",
			Help:    "Duration of a single item import including retries",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"category"},
	)

	// Media Metrics
	MediaItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rcs_media_items_total",
			Help: "Total number of media references by classification result",
		},
		[]string{"result"}, // kept, rejected, failed
	)

	// Run Metrics
	LastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rcs_last_run_timestamp_seconds",
			Help: "Unix time at which the last batch run finished",
		},
	)

	LastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rcs_last_run_duration_seconds",
			Help: "Wall-clock duration of the last batch run",
		},
	)
)

// RecordUpstreamRequest records one completed upstream request. statusCode 0
// means the request failed before a response arrived.
func RecordUpstreamRequest(endpoint string, statusCode int, duration time.Duration) {
	status := "error"
	if statusCode > 0 {
		status = strconv.Itoa(statusCode)
	}
	UpstreamRequests.WithLabelValues(endpoint, status).Inc()
	UpstreamDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordImport records the outcome of one batch item
func RecordImport(category, outcome string, duration time.Duration) {
	ImportsTotal.WithLabelValues(category, outcome).Inc()
	ImportDuration.WithLabelValues(category).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt
func RecordRetry(category string) {
	ImportRetries.WithLabelValues(category).Inc()
}

// RecordMedia records a media replacement
func RecordMedia(kept, rejected, failed int) {
	MediaItems.WithLabelValues("kept").Add(float64(kept))
	MediaItems.WithLabelValues("rejected").Add(float64(rejected))
	MediaItems.WithLabelValues("failed").Add(float64(failed))
}

// RecordRun stamps the end of a batch run
func RecordRun(duration time.Duration) {
	LastRunTimestamp.SetToCurrentTime()
	LastRunDuration.Set(duration.Seconds())
}

// WriteTextfile writes every registered metric to path in the Prometheus
// text format, for the node-exporter textfile collector
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
