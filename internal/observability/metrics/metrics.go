package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the reschedule and
// availability flows.
type SchedulingMetrics struct {
	submitTotal         *prometheus.CounterVec
	availabilityLatency *prometheus.HistogramVec
	staleDropped        prometheus.Counter
	cacheTotal          *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		submitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduling",
			Subsystem: "reschedule",
			Name:      "submit_total",
			Help:      "Total reschedule submissions by outcome",
		}, []string{"outcome"}),
		availabilityLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "scheduling",
			Subsystem: "availability",
			Name:      "fetch_latency_seconds",
			Help:      "Latency of availability lookups",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		staleDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduling",
			Subsystem: "availability",
			Name:      "stale_responses_dropped_total",
			Help:      "Availability responses discarded because a newer selection superseded them",
		}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduling",
			Subsystem: "availability",
			Name:      "cache_total",
			Help:      "Availability cache lookups by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submitTotal, m.availabilityLatency, m.staleDropped, m.cacheTotal)
	return m
}

func (m *SchedulingMetrics) ObserveSubmit(outcome string) {
	if m == nil {
		return
	}
	m.submitTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveAvailabilityLatency(source string, seconds float64) {
	if m == nil {
		return
	}
	m.availabilityLatency.WithLabelValues(source).Observe(seconds)
}

func (m *SchedulingMetrics) ObserveStaleDrop() {
	if m == nil {
		return
	}
	m.staleDropped.Inc()
}

func (m *SchedulingMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}
