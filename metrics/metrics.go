// Package metrics records the latency and failures of template operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the template's prometheus metrics.
type Collector struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with reg. A nil reg keeps them unregistered, which is what
// tests and short lived tools want.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	collector := &Collector{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hbasekit",
			Subsystem: "template",
			Name:      "operation_duration_seconds",
			Help:      "Latency of template operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}, []string{"operation", "table"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hbasekit",
			Subsystem: "template",
			Name:      "operation_errors_total",
			Help:      "Number of template operations that failed.",
		}, []string{"operation", "table"}),
	}
	if reg == nil {
		return collector, nil
	}
	for _, c := range []prometheus.Collector{collector.latency, collector.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return collector, nil
}

// Observe records the outcome of one operation.
func (collector *Collector) Observe(operation string, table string, elapsed time.Duration, err error) {
	collector.latency.WithLabelValues(operation, table).Observe(elapsed.Seconds())
	if err != nil {
		collector.errors.WithLabelValues(operation, table).Inc()
	}
}
