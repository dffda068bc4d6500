package coordinate

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the coordinator's counters.  All methods are nil-safe so an
// unconfigured coordinator pays nothing.
type Metrics struct {
	attempts      prometheus.Counter
	compensations prometheus.Counter
	outcomes      *prometheus.CounterVec
}

// NewMetrics builds the counter set and registers it on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coordinate_attempts_total",
			Help: "Dispatch cycles performed across all coordination calls.",
		}),
		compensations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coordinate_compensation_calls_total",
			Help: "Individual compensation calls issued to nodes.",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coordinate_transactions_total",
			Help: "Coordination calls by terminal state.",
		}, []string{"state"}),
	}
	reg.MustRegister(m.attempts, m.compensations, m.outcomes)
	return m
}

func (m *Metrics) observeAttempt() {
	if m == nil {
		return
	}
	m.attempts.Inc()
}

func (m *Metrics) observeCompensations(n int) {
	if m == nil {
		return
	}
	m.compensations.Add(float64(n))
}

func (m *Metrics) observeTerminal(state TransactionState) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(state.String()).Inc()
}
