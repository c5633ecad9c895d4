package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the reservation engine.
type SchedulingMetrics struct {
	claimsTotal   *prometheus.CounterVec
	consumesTotal *prometheus.CounterVec
	sweptTotal    prometheus.Counter
	claimLatency  prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		claimsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "reservations",
			Name:      "claims_total",
			Help:      "Total slot claim attempts",
		}, []string{"status"}),
		consumesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "reservations",
			Name:      "consumes_total",
			Help:      "Total hold consume attempts",
		}, []string{"status"}),
		sweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scheduler",
			Subsystem: "reservations",
			Name:      "swept_total",
			Help:      "Total expired holds reclaimed",
		}),
		claimLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scheduler",
			Subsystem: "reservations",
			Name:      "claim_latency_seconds",
			Help:      "Latency of claim operations",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.claimsTotal, m.consumesTotal, m.sweptTotal, m.claimLatency)
	return m
}

func (m *SchedulingMetrics) ObserveClaim(status string, seconds float64) {
	if m == nil {
		return
	}
	m.claimsTotal.WithLabelValues(status).Inc()
	m.claimLatency.Observe(seconds)
}

func (m *SchedulingMetrics) ObserveConsume(status string) {
	if m == nil {
		return
	}
	m.consumesTotal.WithLabelValues(status).Inc()
}

func (m *SchedulingMetrics) ObserveSwept(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.sweptTotal.Add(float64(count))
}
