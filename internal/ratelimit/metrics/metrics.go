package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GateDecisionsTotal   *prometheus.CounterVec
	CounterStoreFailures prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		GateDecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hawiya_gate_decisions_total",
			Help: "Total number of gate authorization decisions by outcome",
		}, []string{"outcome"}),
		CounterStoreFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "hawiya_counter_store_failures_total",
			Help: "Total number of quota counter store failures",
		}),
	}
}

func (m *Metrics) RecordDecision(outcome string) {
	m.GateDecisionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordCounterStoreFailure() {
	m.CounterStoreFailures.Inc()
}
