// Package metrics exposes the gateway's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ChallengesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "formgate_challenges_issued_total",
		Help: "Number of proof-of-work challenges handed out.",
	})

	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "formgate_verifications_total",
		Help: "Verification pipeline outcomes by provider.",
	}, []string{"provider", "outcome"})
)

// Outcome labels for Verifications.
const (
	OutcomeAccepted    = "accepted"
	OutcomeHoneypot    = "honeypot"
	OutcomeMissing     = "token_missing"
	OutcomeInvalid     = "token_invalid"
	OutcomeReplay      = "replay"
	OutcomeUpstreamErr = "upstream_error"
	OutcomeConfigErr   = "config_error"
)
