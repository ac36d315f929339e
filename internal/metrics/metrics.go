// Package metrics holds the Prometheus collectors of the service.
// Collectors work unregistered, so tests can use them without touching the default registry.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "investlink"

var registerOnce sync.Once

// Register adds every collector to the default registry. Called once from main.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,

			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			EmbeddingQuotaRemaining,

			BreakerState,
			BreakerTransitionsTotal,
			BreakerRequestsTotal,

			RecommendRequestsTotal,
			RecommendDuration,
			ShortlistSize,
			ScorerMode,
			EngineLoadsTotal,
			LedgerEventsTotal,
		)
	})
}
