package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds application-level Prometheus metrics. Gate decision metrics
// live in the ratelimit module.
type Metrics struct {
	ValidationsTotal   *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
	KeysCreated        prometheus.Counter
	KeysRevoked        prometheus.Counter
	AuditDropped       prometheus.Counter
}

// New creates and registers all application metrics.
func New() *Metrics {
	return &Metrics{
		ValidationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hawiya_validations_total",
			Help: "Total number of national ID validations by result",
		}, []string{"valid"}),
		ValidationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "hawiya_validation_duration_seconds",
			Help:    "Duration of national ID validation requests in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		KeysCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hawiya_api_keys_created_total",
			Help: "Total number of API keys created",
		}),
		KeysRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hawiya_api_keys_revoked_total",
			Help: "Total number of API keys revoked",
		}),
		AuditDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hawiya_audit_entries_dropped_total",
			Help: "Total number of audit entries dropped due to a full buffer",
		}),
	}
}

func (m *Metrics) RecordValidation(valid bool, seconds float64) {
	label := "false"
	if valid {
		label = "true"
	}
	m.ValidationsTotal.WithLabelValues(label).Inc()
	m.ValidationDuration.Observe(seconds)
}

func (m *Metrics) IncrementKeysCreated() {
	m.KeysCreated.Inc()
}

func (m *Metrics) IncrementKeysRevoked() {
	m.KeysRevoked.Inc()
}
