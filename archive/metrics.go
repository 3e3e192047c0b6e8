package archive

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Put outcomes, used as the "outcome" label.
const (
	OutcomeStored    = "stored"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
)

// Metrics are the archive's Prometheus collectors.
type Metrics struct {
	puts        *prometheus.CounterVec
	putDuration prometheus.Histogram
	lookups     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		puts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "setcore",
			Subsystem: "archive",
			Name:      "puts_total",
			Help:      "Certificates submitted to the archive, by outcome.",
		}, []string{"outcome"}),
		putDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "setcore",
			Subsystem: "archive",
			Name:      "put_duration_seconds",
			Help:      "Time spent verifying and storing a certificate.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "setcore",
			Subsystem: "archive",
			Name:      "lookups_total",
			Help:      "Settlement lookups, by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.puts, m.putDuration, m.lookups)
	}
	return m
}

func (m *Metrics) observePut(outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.puts.WithLabelValues(outcome).Inc()
	m.putDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) observeLookup(found bool) {
	if m == nil {
		return
	}
	if found {
		m.lookups.WithLabelValues("hit").Inc()
		return
	}
	m.lookups.WithLabelValues("miss").Inc()
}
