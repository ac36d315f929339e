package metrics

import "github.com/prometheus/client_golang/prometheus"

// Circuit breaker metrics.
var (
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Breaker state: 0 closed, 1 half-open, 2 open",
		},
		[]string{"name"},
	)

	BreakerTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_transitions_total",
			Help:      "Breaker state changes",
		},
		[]string{"name", "from", "to"},
	)
)

// BreakerRequestsTotal counts calls through a breaker by result (success, failure, rejected).
var BreakerRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_requests_total",
		Help:      "Calls through the circuit breaker by result",
	},
	[]string{"name", "result"},
)
