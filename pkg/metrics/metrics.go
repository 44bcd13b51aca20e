package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records login attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactbook_auth_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// Registrations counts account registrations by result (success|conflict|failure).
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactbook_registrations_total",
			Help: "Total number of registration attempts",
		},
		[]string{"result"},
	)

	// VerificationEmails counts dispatched verification emails by result (sent|failed).
	VerificationEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactbook_verification_emails_total",
			Help: "Total number of verification email deliveries",
		},
		[]string{"result"},
	)

	// AvatarResizes counts background avatar transforms by result (success|failure).
	AvatarResizes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contactbook_avatar_resizes_total",
			Help: "Total number of avatar resize operations",
		},
		[]string{"result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "contactbook_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
