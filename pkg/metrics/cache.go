package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics tracks capability cache refresh behavior.
type CacheMetrics struct {
	refreshes *prometheus.CounterVec
	stale     prometheus.Counter
}

// NewCacheMetrics registers the capability cache metrics on the provided registerer.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	if reg == nil {
		return &CacheMetrics{}
	}
	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "capability_cache_refresh_total",
		Help: "Capability cache refreshes by outcome.",
	}, []string{"outcome"})
	stale := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capability_cache_stale_discarded_total",
		Help: "Refresh responses discarded for arriving out of order.",
	})
	reg.MustRegister(refreshes, stale)
	return &CacheMetrics{refreshes: refreshes, stale: stale}
}

// IncRefresh counts a refresh by outcome ("success" or "fail_open").
func (m *CacheMetrics) IncRefresh(outcome string) {
	if m == nil || m.refreshes == nil {
		return
	}
	m.refreshes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncStaleDiscarded counts a stale refresh response thrown away.
func (m *CacheMetrics) IncStaleDiscarded() {
	if m == nil || m.stale == nil {
		return
	}
	m.stale.Inc()
}
