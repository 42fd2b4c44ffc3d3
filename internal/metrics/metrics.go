// Package metrics exposes Prometheus collectors for the sync service. The
// collectors are registered at package load so every entry point, including
// tests, can record observations without any setup call.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	syncTicksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoreline_sync_ticks_total",
			Help: "Total sync ticks executed, labeled by sport and result.",
		},
		[]string{"sport", "result"},
	)

	syncDateFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoreline_sync_date_failures_total",
			Help: "Total per-date fetch failures inside sync ticks, labeled by sport.",
		},
		[]string{"sport"},
	)

	gamesChangedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoreline_games_changed_total",
			Help: "Total records whose mutable fields changed during sync, labeled by sport.",
		},
		[]string{"sport"},
	)

	statusRegressionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoreline_status_regressions_total",
			Help: "Total upstream status observations that broke the forward-only lifecycle, labeled by sport.",
		},
		[]string{"sport"},
	)

	changeEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoreline_change_events_published_total",
			Help: "Total change events handed to publishers, labeled by sport.",
		},
		[]string{"sport"},
	)

	changeEventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoreline_change_events_dropped_total",
			Help: "Total change events dropped by the in-process hub due to backpressure.",
		},
	)

	cacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoreline_cache_hits_total",
			Help: "Total cache hits, labeled by TTL class.",
		},
		[]string{"class"},
	)

	cacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoreline_cache_misses_total",
			Help: "Total cache misses that fell through to a fetch, labeled by TTL class.",
		},
		[]string{"class"},
	)

	cacheSharedFetchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scoreline_cache_shared_fetches_total",
			Help: "Total calls that joined another caller's in-flight fetch.",
		},
	)

	fetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scoreline_fetch_duration_seconds",
			Help:    "Histogram of upstream fetch latencies, labeled by provider.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider"},
	)

	mergeViewsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scoreline_merge_views_active",
			Help: "Number of merge views currently open.",
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveTick records one completed sync tick.
func ObserveTick(sport string, failed bool) {
	result := "ok"
	if failed {
		result = "error"
	}
	syncTicksTotal.WithLabelValues(sport, result).Inc()
}

// ObserveDateFailure counts one failed date inside a tick.
func ObserveDateFailure(sport string) {
	syncDateFailuresTotal.WithLabelValues(sport).Inc()
}

// ObserveGameChanged counts a record whose mutable state changed.
func ObserveGameChanged(sport string) {
	gamesChangedTotal.WithLabelValues(sport).Inc()
}

// ObserveStatusRegression counts an out-of-order status observation.
func ObserveStatusRegression(sport string) {
	statusRegressionsTotal.WithLabelValues(sport).Inc()
}

// ObserveEventPublished counts a change event handed to publishers.
func ObserveEventPublished(sport string) {
	changeEventsTotal.WithLabelValues(sport).Inc()
}

// ObserveEventsDropped counts hub drops.
func ObserveEventsDropped(n int64) {
	if n > 0 {
		changeEventsDroppedTotal.Add(float64(n))
	}
}

// ObserveCacheHit counts a cache hit for the class.
func ObserveCacheHit(class string) {
	cacheHitsTotal.WithLabelValues(class).Inc()
}

// ObserveCacheMiss counts a cache miss for the class.
func ObserveCacheMiss(class string) {
	cacheMissesTotal.WithLabelValues(class).Inc()
}

// ObserveCacheSharedFetch counts a caller that shared an in-flight fetch.
func ObserveCacheSharedFetch() {
	cacheSharedFetchesTotal.Inc()
}

// ObserveFetch records the latency of one upstream fetch.
func ObserveFetch(provider string, duration time.Duration) {
	fetchDurationSeconds.WithLabelValues(provider).Observe(duration.Seconds())
}

// IncMergeViews increments the active view gauge.
func IncMergeViews() {
	mergeViewsActive.Inc()
}

// DecMergeViews decrements the active view gauge.
func DecMergeViews() {
	mergeViewsActive.Dec()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
