// Package metrics provides Prometheus metrics for animebot.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "animebot"

// Refresh results recorded on RefreshesTotal.
const (
	RefreshSuccess = "success"
	RefreshPartial = "partial"
	RefreshFailed  = "failed"
	RefreshSkipped = "fresh"
)

// Metrics holds all Prometheus metrics for animebot. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Cache metrics
	RefreshesTotal  *prometheus.CounterVec
	PagesFetched    prometheus.Counter
	CachedTitles    prometheus.Gauge
	RefreshDuration prometheus.Histogram
	DetailFetches   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates a Metrics instance registered on its own registry together
// with the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RefreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_refreshes_total",
			Help:      "Title cache refresh attempts by result.",
		}, []string{"result"}),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_pages_fetched_total",
			Help:      "Popularity pages fetched successfully from AniList.",
		}),
		CachedTitles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cache_titles",
			Help:      "Number of titles currently cached.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_refresh_duration_seconds",
			Help:      "Wall time of title cache refreshes that reached the network.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 8),
		}),
		DetailFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detail_fetches_total",
			Help:      "Detail lookups by result.",
		}, []string{"result"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of API requests.",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "API request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RefreshesTotal,
		m.PagesFetched,
		m.CachedTitles,
		m.RefreshDuration,
		m.DetailFetches,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler returns the Prometheus exposition handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRefresh records the outcome of a refresh that reached the network.
func (m *Metrics) RecordRefresh(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RefreshesTotal.WithLabelValues(result).Inc()
	m.RefreshDuration.Observe(duration.Seconds())
}

// RecordFreshHit counts a refresh request answered without network access.
func (m *Metrics) RecordFreshHit() {
	if m == nil {
		return
	}
	m.RefreshesTotal.WithLabelValues(RefreshSkipped).Inc()
}

// RecordPage counts one successfully fetched page.
func (m *Metrics) RecordPage() {
	if m == nil {
		return
	}
	m.PagesFetched.Inc()
}

// SetCachedTitles updates the cached title gauge.
func (m *Metrics) SetCachedTitles(n int) {
	if m == nil {
		return
	}
	m.CachedTitles.Set(float64(n))
}

// RecordDetailFetch records a detail lookup result ("found", "not_found", "error").
func (m *Metrics) RecordDetailFetch(result string) {
	if m == nil {
		return
	}
	m.DetailFetches.WithLabelValues(result).Inc()
}

// RecordHTTPRequest records an API request metric.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}
