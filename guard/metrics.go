package guard

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	sessionsStarted  *prometheus.CounterVec
	tokenValidations *prometheus.CounterVec
	legitimacyChecks *prometheus.CounterVec
	rejected         *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionguard",
			Name:      "sessions_started_total",
			Help:      "Sessions started, by whether they were created or resumed.",
		}, []string{"state"}),
		tokenValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionguard",
			Name:      "token_validations_total",
			Help:      "Request token validations by result.",
		}, []string{"result"}),
		legitimacyChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionguard",
			Name:      "legitimacy_checks_total",
			Help:      "Legitimacy cookie checks by verdict.",
		}, []string{"result"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sessionguard",
			Name:      "requests_rejected_total",
			Help:      "Requests rejected by Protect, by reason.",
		}, []string{"reason"}),
	}
}

// register adds the collectors to reg. Collectors already registered by
// another Guard are reused.
func (m *metrics) register(reg prometheus.Registerer) error {
	var errs []error
	for _, c := range []**prometheus.CounterVec{
		&m.sessionsStarted, &m.tokenValidations, &m.legitimacyChecks, &m.rejected,
	} {
		if err := reg.Register(*c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
					*c = existing
					continue
				}
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
