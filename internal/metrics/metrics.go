// Package metrics exposes Prometheus counters for cache and fetch activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"MarketDash/internal/cache"
)

// Metrics holds all Prometheus metrics for the dashboard core.
type Metrics struct {
	CacheHits      *prometheus.CounterVec // labels: cache
	CacheMisses    *prometheus.CounterVec // labels: cache
	CacheEvictions *prometheus.CounterVec // labels: cache

	FetchFailures *prometheus.CounterVec // labels: kind
	Fallbacks     *prometheus.CounterVec // labels: kind

	ViewsBuilt          prometheus.Counter
	IndicatorComputeDur *prometheus.HistogramVec // labels: indicator
}

// New creates the metrics and registers them on reg. A nil reg skips
// registration, which keeps tests isolated from the default registry.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Retrieval cache hits",
		}, []string{"cache"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Retrieval cache misses",
		}, []string{"cache"}),
		CacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_evictions_total",
			Help:      "Entries evicted from the retrieval cache for capacity",
		}, []string{"cache"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Upstream fetch errors (history, company, active)",
		}, []string{"kind"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Fetches answered with the fallback symbol",
		}, []string{"kind"}),
		ViewsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_built_total",
			Help:      "Dashboard views computed",
		}),
		IndicatorComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "indicator_compute_duration_seconds",
			Help:      "Indicator compute latency per series",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"indicator"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.CacheHits,
			m.CacheMisses,
			m.CacheEvictions,
			m.FetchFailures,
			m.Fallbacks,
			m.ViewsBuilt,
			m.IndicatorComputeDur,
		)
	}
	return m
}

// CacheObserver wires cache events for the named cache into the counters.
func (m *Metrics) CacheObserver(name string) cache.Observer {
	if m == nil {
		return cache.Observer{}
	}
	return cache.Observer{
		OnHit:   func() { m.CacheHits.WithLabelValues(name).Inc() },
		OnMiss:  func() { m.CacheMisses.WithLabelValues(name).Inc() },
		OnEvict: func(string) { m.CacheEvictions.WithLabelValues(name).Inc() },
	}
}

// FetchFailed counts a failed upstream fetch.
func (m *Metrics) FetchFailed(kind string) {
	if m != nil {
		m.FetchFailures.WithLabelValues(kind).Inc()
	}
}

// FellBack counts a fetch served by the fallback symbol.
func (m *Metrics) FellBack(kind string) {
	if m != nil {
		m.Fallbacks.WithLabelValues(kind).Inc()
	}
}

// ViewBuilt counts a computed view.
func (m *Metrics) ViewBuilt() {
	if m != nil {
		m.ViewsBuilt.Inc()
	}
}

// ObserveIndicator records how long one indicator took.
func (m *Metrics) ObserveIndicator(indicator string, d time.Duration) {
	if m != nil {
		m.IndicatorComputeDur.WithLabelValues(indicator).Observe(d.Seconds())
	}
}
