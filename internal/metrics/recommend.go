package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation engine metrics.
var (
	RecommendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Recommendation calls by direction and outcome",
		},
		[]string{"direction", "outcome"},
	)

	RecommendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "End-to-end recommendation latency",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"direction"},
	)

	ShortlistSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_shortlist_size",
			Help:      "Candidates passed to the encoder and scorer",
			Buckets:   []float64{0, 1, 5, 10, 20, 30, 50, 100},
		},
		[]string{"direction"},
	)

	ScorerMode = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scorer_mode",
			Help:      "1 when a trained model is loaded, 0 on the heuristic fallback",
		},
		[]string{"direction"},
	)

	EngineLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_loads_total",
			Help:      "Engine state builds by kind and result",
		},
		[]string{"kind", "result"},
	)

	LedgerEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_events_total",
			Help:      "Interaction events applied to the in-memory ledger",
		},
		[]string{"side", "status"},
	)
)
