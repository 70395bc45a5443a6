package publish

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the export pipeline's Prometheus collectors.
type Metrics struct {
	exports        *prometheus.CounterVec
	formatDuration *prometheus.HistogramVec
	isbns          *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg. A nil reg leaves them
// unregistered, which tests rely on.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookpublish_exports_total",
				Help: "Export runs by terminal state",
			},
			[]string{"state"},
		),
		formatDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookpublish_format_duration_seconds",
				Help:    "Time spent generating one format",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"format", "outcome"},
		),
		isbns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookpublish_isbn_assignments_total",
				Help: "ISBN assignment attempts by edition and outcome",
			},
			[]string{"edition", "outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.exports, m.formatDuration, m.isbns)
	}
	return m
}

func outcomeLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *Metrics) observeRun(state State) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(string(state)).Inc()
}

func (m *Metrics) observeFormat(f Format, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.formatDuration.WithLabelValues(string(f), outcomeLabel(ok)).Observe(d.Seconds())
}

func (m *Metrics) observeISBN(edition string, ok bool) {
	if m == nil {
		return
	}
	m.isbns.WithLabelValues(edition, outcomeLabel(ok)).Inc()
}
