package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// IOISubmissions records IOI ledger mutations by kind (create|update|withdraw).
	IOISubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earlylook_ioi_submissions_total",
			Help: "Total number of IOI ledger mutations",
		},
		[]string{"kind"},
	)

	// DealTransitions counts deal lifecycle transitions (open|close).
	DealTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "earlylook_deal_transitions_total",
			Help: "Total number of deal lifecycle transitions",
		},
		[]string{"transition"},
	)

	// InvitationsAccepted tracks redeemed invitation tokens.
	InvitationsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "earlylook_invitations_accepted_total",
			Help: "Number of accepted investor invitations",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "earlylook_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
