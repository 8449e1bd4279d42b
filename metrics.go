package gaudit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// failure reasons reported on gaudit_record_failures_total.
const (
	reasonModifier = "modifier"
	reasonBuild    = "build"
	reasonStore    = "store"
)

type metrics struct {
	records  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// newMetrics registers the recorder's collectors with reg. A nil reg disables metrics.
func newMetrics(reg prometheus.Registerer) *metrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &metrics{
		records: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gaudit_records_total",
			Help: "Total number of audit records written",
		}, []string{"action", "scope"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "gaudit_record_failures_total",
			Help: "Total number of audit attempts that failed",
		}, []string{"action", "reason"}),
	}
}

func (m *metrics) recorded(action Action, scope string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(action.String(), scope).Inc()
}

func (m *metrics) failed(action Action, reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(action.String(), reason).Inc()
}
