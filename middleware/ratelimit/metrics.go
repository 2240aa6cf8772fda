package ratelimit

import (
	"governance-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	decisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_ratelimit_decisions_total",
			Help: "Rate limit decisions by route class and outcome",
		},
		[]string{"class", "outcome"},
	)

	storeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_ratelimit_store_errors_total",
			Help: "Window store failures by route class",
		},
		[]string{"class"},
	)

	overloadRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "governance_overload_rejects_total",
			Help: "Requests rejected by the global overload guard",
		},
	)

	concurrencyRejects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "governance_concurrency_rejects_total",
			Help: "Requests rejected for lack of a concurrency slot",
		},
	)
)

func observeDecision(class domain.RouteClass, admitted bool) {
	outcome := "rejected"
	if admitted {
		outcome = "admitted"
	}
	decisionsTotal.WithLabelValues(string(class), outcome).Inc()
}
