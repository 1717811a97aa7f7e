// Package metrics provides Prometheus metrics for the dashboard service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchAttempts counts retrieval attempts per strategy.
	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "fetch_attempts_total",
			Help:      "Total number of retrieval attempts by strategy and outcome",
		},
		[]string{"strategy", "status"},
	)

	// FetchDuration measures full fetch operations, all strategies included.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dashboard",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of fetch operations in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 24},
		},
		[]string{"status"},
	)

	// CacheLookups counts response cache hits and misses.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "cache_lookups_total",
			Help:      "Total number of response cache lookups",
		},
		[]string{"result"},
	)

	// WidgetRefreshes counts poller refresh outcomes.
	WidgetRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Name:      "widget_refreshes_total",
			Help:      "Total number of background widget refreshes",
		},
		[]string{"status"},
	)

	// WatchedWidgets tracks the number of running refresh loops.
	WatchedWidgets = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dashboard",
			Name:      "watched_widgets",
			Help:      "Number of widgets with an active refresh loop",
		},
	)
)

// RecordAttempt records one strategy attempt.
func RecordAttempt(strategy, status string) {
	FetchAttempts.WithLabelValues(strategy, status).Inc()
}

// RecordFetch records a completed fetch operation.
func RecordFetch(status string, seconds float64) {
	FetchDuration.WithLabelValues(status).Observe(seconds)
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheLookups.WithLabelValues(result).Inc()
}

// RecordRefresh records a background widget refresh.
func RecordRefresh(status string) {
	WidgetRefreshes.WithLabelValues(status).Inc()
}
