package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EntitlementMetrics tracks feature resolution and snapshot cache behavior.
type EntitlementMetrics struct {
	resolveDuration *prometheus.HistogramVec
	resolveOutcome  *prometheus.CounterVec
	snapshotServed  prometheus.Counter
	overrideWrites  prometheus.Counter
}

// NewEntitlementMetrics registers the entitlement metrics on the provided registerer.
func NewEntitlementMetrics(reg prometheus.Registerer) *EntitlementMetrics {
	if reg == nil {
		return &EntitlementMetrics{}
	}
	resolveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "entitlement_resolve_duration_seconds",
		Help:    "Duration of feature set resolution in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"source"})
	resolveOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "entitlement_resolve_total",
		Help: "Feature set resolutions by outcome.",
	}, []string{"outcome"})
	snapshotServed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "entitlement_snapshot_served_total",
		Help: "Resolutions served from the last known good snapshot.",
	})
	overrideWrites := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "entitlement_override_writes_total",
		Help: "Per-client feature override writes.",
	})
	reg.MustRegister(resolveDuration, resolveOutcome, snapshotServed, overrideWrites)
	return &EntitlementMetrics{
		resolveDuration: resolveDuration,
		resolveOutcome:  resolveOutcome,
		snapshotServed:  snapshotServed,
		overrideWrites:  overrideWrites,
	}
}

// ObserveResolve records how long a resolution took for the given store source.
func (m *EntitlementMetrics) ObserveResolve(source string, duration time.Duration) {
	if m == nil || m.resolveDuration == nil {
		return
	}
	m.resolveDuration.WithLabelValues(normalizeLabel(source)).Observe(duration.Seconds())
}

// IncResolve increments the resolution counter for the given outcome.
func (m *EntitlementMetrics) IncResolve(outcome string) {
	if m == nil || m.resolveOutcome == nil {
		return
	}
	m.resolveOutcome.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncSnapshotServed counts a resolution answered from the snapshot cache.
func (m *EntitlementMetrics) IncSnapshotServed() {
	if m == nil || m.snapshotServed == nil {
		return
	}
	m.snapshotServed.Inc()
}

// IncOverrideWrite counts a client feature override mutation.
func (m *EntitlementMetrics) IncOverrideWrite() {
	if m == nil || m.overrideWrites == nil {
		return
	}
	m.overrideWrites.Inc()
}
