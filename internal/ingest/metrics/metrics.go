package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ingestion engine.
type Metrics struct {
	// Scan outcomes: recorded, duplicate, not_found, invalid, error
	ScansTotal *prometheus.CounterVec

	// End-to-end record latency including directory and ledger access
	RecordDuration prometheus.Histogram
}

// New creates the ingestion metrics and registers them with the default
// registry.
func New() *Metrics {
	return &Metrics{
		ScansTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rollcall_ingest_scans_total",
			Help: "Total processed scan events by outcome",
		}, []string{"outcome"}),

		RecordDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_ingest_record_duration_seconds",
			Help:    "Duration of attendance recording including store access",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementOutcome records one scan outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.ScansTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveRecordDuration records the duration of one recording attempt.
func (m *Metrics) ObserveRecordDuration(d time.Duration) {
	if m != nil {
		m.RecordDuration.Observe(d.Seconds())
	}
}
