package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for registrations and the login gate.
type Metrics struct {
	Registrations prometheus.Counter
	Logins        *prometheus.CounterVec
}

// New creates a new Metrics instance with all account module metrics registered.
func New() *Metrics {
	return &Metrics{
		Registrations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "afridio_accounts_registered_total",
			Help: "Total number of accounts created",
		}),
		Logins: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "afridio_logins_total",
			Help: "Login attempts by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementRegistered records a successful registration.
func (m *Metrics) IncrementRegistered() {
	m.Registrations.Inc()
}

// IncrementLogin records a login attempt outcome: succeeded, failed, or blocked.
func (m *Metrics) IncrementLogin(outcome string) {
	m.Logins.WithLabelValues(outcome).Inc()
}
