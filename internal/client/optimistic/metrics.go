package optimistic

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics — счётчики исходов мутаций. nil-безопасен.
type Metrics struct {
	outcomes *prometheus.CounterVec
}

// NewMetrics регистрирует talas_client_mutations_total{family,outcome} в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "talas",
			Subsystem: "client",
			Name:      "mutations_total",
			Help:      "Optimistic mutations by family and outcome.",
		}, []string{"family", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.outcomes)
	}

	return m
}

func (m *Metrics) observe(f Family, o Outcome) {
	if m == nil {
		return
	}

	m.outcomes.WithLabelValues(string(f), string(o)).Inc()
}
