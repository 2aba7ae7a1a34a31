// Package instrumentation exposes the monitor's Prometheus metrics. They
// are served on /metrics in daemon mode; one-shot runs still record them
// for the duration of the process.
package instrumentation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the monitor.
type Metrics struct {
	CyclesTotal         *prometheus.CounterVec
	BatchSize           prometheus.Gauge
	ActiveVessels       prometheus.Gauge
	CompletedTotal      prometheus.Counter
	AdoptedTotal        prometheus.Counter
	EvictedTotal        prometheus.Counter
	AlertsSentTotal     prometheus.Counter
	DeliveryErrorsTotal prometheus.Counter
	CycleDurationMs     prometheus.Histogram
}

// NewMetrics creates and registers all metrics on the default registry.
// Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "portrep_cycles_total",
			Help: "Total cycles by mode and outcome",
		}, []string{"mode", "outcome"}),

		BatchSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "portrep_batch_size",
			Help: "Normalized records in the most recent fetched batch",
		}),

		ActiveVessels: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "portrep_active_vessels",
			Help: "Tracked port calls after the most recent cycle",
		}),

		CompletedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portrep_calls_completed_total",
			Help: "Port calls converted into history records",
		}),

		AdoptedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portrep_calls_adopted_total",
			Help: "Newly tracked port calls",
		}),

		EvictedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portrep_calls_evicted_total",
			Help: "Tracked port calls dropped as stale",
		}),

		AlertsSentTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portrep_alerts_sent_total",
			Help: "Planned-arrival alert mails delivered",
		}),

		DeliveryErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "portrep_delivery_errors_total",
			Help: "Notification deliveries that failed",
		}),

		CycleDurationMs: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "portrep_cycle_duration_ms",
			Help:    "Wall-clock duration of a full cycle in milliseconds",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}),
	}
}

// RecordCycle increments the cycle counter for a mode/outcome pair.
func (m *Metrics) RecordCycle(mode, outcome string) {
	m.CyclesTotal.WithLabelValues(mode, outcome).Inc()
}
