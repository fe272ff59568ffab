// Package metrics exposes Prometheus collectors for the knowledge service.
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

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	itemsSavedTotal            prometheus.Counter
	itemsDeletedTotal          prometheus.Counter
	fetchFailuresTotal         prometheus.Counter
	summaryFallbacksTotal      prometheus.Counter
	searchRequestsTotal        *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "route"},
		)

		itemsSavedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "knowledge_items_saved_total",
				Help: "Total number of knowledge items captured.",
			},
		)

		itemsDeletedTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "knowledge_items_deleted_total",
				Help: "Total number of knowledge items deleted.",
			},
		)

		fetchFailuresTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "knowledge_fetch_failures_total",
				Help: "Total number of page fetches that failed.",
			},
		)

		summaryFallbacksTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "knowledge_summary_fallbacks_total",
				Help: "Total number of summaries that degraded to the fallback text.",
			},
		)

		searchRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "knowledge_search_requests_total",
				Help: "Total number of search requests, labeled by status.",
			},
			[]string{"status"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveItemSaved increments the saved items counter.
func ObserveItemSaved() {
	itemsSavedTotal.Inc()
}

// ObserveItemDeleted increments the deleted items counter.
func ObserveItemDeleted() {
	itemsDeletedTotal.Inc()
}

// ObserveFetchFailure increments the fetch failure counter.
func ObserveFetchFailure() {
	fetchFailuresTotal.Inc()
}

// ObserveSummaryFallback increments the degraded summary counter.
func ObserveSummaryFallback() {
	summaryFallbacksTotal.Inc()
}

// ObserveSearch increments the search counter for the given status.
func ObserveSearch(status string) {
	searchRequestsTotal.WithLabelValues(status).Inc()
}
