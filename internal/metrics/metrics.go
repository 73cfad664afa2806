// Package metrics exposes Prometheus collectors for the crawler.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fetch sources.
const (
	SourceCache   = "cache"
	SourceNetwork = "network"
)

var (
	fetchTotal             *prometheus.CounterVec
	fetchBytesTotal        *prometheus.CounterVec
	fetchDurationSeconds   prometheus.Histogram
	detailTasksInFlight    prometheus.Gauge
	listPagesTotal         *prometheus.CounterVec
	reconcileFailuresTotal prometheus.Counter
	importRecordsTotal     *prometheus.CounterVec
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	rateLimitDelaySeconds  prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		fetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unvotes_fetch_total",
				Help: "Total page fetches, labeled by source (cache or network) and outcome.",
			},
			[]string{"source", "outcome"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unvotes_fetch_bytes_total",
				Help: "Total bytes returned by the fetcher, labeled by source.",
			},
			[]string{"source"},
		)

		fetchDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "unvotes_network_fetch_duration_seconds",
				Help:    "Histogram of network fetch latencies.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
		)

		detailTasksInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "unvotes_detail_tasks_in_flight",
				Help: "Detail fetch-and-reconcile tasks currently running.",
			},
		)

		listPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unvotes_list_pages_total",
				Help: "List pages read, labeled by year.",
			},
			[]string{"year"},
		)

		reconcileFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "unvotes_reconcile_failures_total",
				Help: "Voting-data pages dropped because no secondary document was reachable.",
			},
		)

		importRecordsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unvotes_import_records_total",
				Help: "Imported records, labeled by outcome (success, skipped, error).",
			},
			[]string{"outcome"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of ops HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of ops HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "route"},
		)

		rateLimitDelaySeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "unvotes_rate_limit_delay_seconds",
				Help:    "Time network fetches spent waiting for the rate limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveFetch records one fetch served by source.
func ObserveFetch(source, outcome string, bytesFetched int) {
	Init()
	fetchTotal.WithLabelValues(source, outcome).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(source).Add(float64(bytesFetched))
	}
}

// ObserveNetworkDuration records the latency of a network fetch.
func ObserveNetworkDuration(d time.Duration) {
	Init()
	fetchDurationSeconds.Observe(d.Seconds())
}

// IncDetailTasks increments the in-flight detail task gauge.
func IncDetailTasks() {
	Init()
	detailTasksInFlight.Inc()
}

// DecDetailTasks decrements the in-flight detail task gauge.
func DecDetailTasks() {
	Init()
	detailTasksInFlight.Dec()
}

// ObserveListPage counts a list page read for year.
func ObserveListPage(year int) {
	Init()
	listPagesTotal.WithLabelValues(strconv.Itoa(year)).Inc()
}

// ObserveReconcileFailure counts a dropped voting-data page.
func ObserveReconcileFailure() {
	Init()
	reconcileFailuresTotal.Inc()
}

// ObserveImport adds n records with the given outcome.
func ObserveImport(outcome string, n int) {
	Init()
	if n > 0 {
		importRecordsTotal.WithLabelValues(outcome).Add(float64(n))
	}
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records time spent waiting for a fetch token.
func ObserveRateLimitDelay(d time.Duration) {
	Init()
	rateLimitDelaySeconds.Observe(d.Seconds())
}
