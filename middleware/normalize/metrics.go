package normalize

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	responsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_responses_total",
			Help: "Responses leaving the boundary by envelope code and HTTP status",
		},
		[]string{"code", "status"},
	)

	panicRecoveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "governance_panic_recoveries_total",
			Help: "Panics recovered by the boundary",
		},
	)
)

func observeResponse(code string, status int) {
	if code == "" {
		code = "OK"
	}
	responsesTotal.WithLabelValues(code, strconv.Itoa(status)).Inc()
}
