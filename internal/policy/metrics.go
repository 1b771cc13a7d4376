package policy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts policy outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Decisions *prometheus.CounterVec
	Errors    prometheus.Counter
}

// NewMetrics registers the policy metrics with reg. A nil reg creates unregistered
// collectors, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "coliving_policy_decisions_total",
			Help: "Authorization decisions by resource, operation and effect",
		}, []string{"resource", "operation", "effect"}),
		Errors: factory.NewCounter(prometheus.CounterOpts{
			Name: "coliving_policy_errors_total",
			Help: "Authorization checks that failed to evaluate",
		}),
	}
}

func (m *Metrics) ObserveDecision(resource, operation, effect string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(resource, operation, effect).Inc()
}

func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.Errors.Inc()
}
