// Package metrics defines the Prometheus instruments for the SSO flows.
// A standalone package avoids import cycles between services and HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sso_logins_total",
		Help: "Login attempts by outcome (success|failure)",
	}, []string{"outcome"})

	Signups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sso_signups_total",
		Help: "Signup attempts by outcome (success|failure)",
	}, []string{"outcome"})

	CodesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sso_auth_codes_issued_total",
		Help: "Authorization codes issued",
	})

	Exchanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sso_token_exchanges_total",
		Help: "Token exchange attempts by outcome (success or OAuth error code)",
	}, []string{"outcome"})

	SessionValidations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sso_session_validations_total",
		Help: "Session cookie validations by outcome (hit|miss)",
	}, []string{"outcome"})
)

// Register registers the SSO metrics on the given registry (default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{Logins, Signups, CodesIssued, Exchanges, SessionValidations} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
