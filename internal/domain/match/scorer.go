package match

import (
	"context"
	"fmt"
)

// Direction says who is asking. The candidates are always the opposite side.
type Direction string

const (
	// SeekerToProviders ranks companies for an investor.
	SeekerToProviders Direction = "seeker"
	// ProviderToSeekers ranks investors for a company.
	ProviderToSeekers Direction = "provider"
)

// Directions lists both ranking directions.
var Directions = []Direction{SeekerToProviders, ProviderToSeekers}

// Scorer maps feature rows to match probabilities, one per row.
type Scorer interface {
	Score(ctx context.Context, rows []Features) ([]float64, error)
}

// Fallback weights, in feature order.
var (
	seekerFallbackWeights   = Features{0.35, 0.25, 0.15, 0.10, 0.15}
	providerFallbackWeights = Features{0.30, 0.25, 0.15, 0.10, 0.20}
)

// FallbackWeights returns the heuristic weights used when no model artifact is loaded.
func FallbackWeights(d Direction) Features {
	if d == ProviderToSeekers {
		return providerFallbackWeights
	}
	return seekerFallbackWeights
}

// FallbackScorer is a fixed weighted sum of the features.
type FallbackScorer struct {
	weights Features
}

// NewFallbackScorer returns the heuristic scorer for a direction.
func NewFallbackScorer(d Direction) *FallbackScorer {
	return &FallbackScorer{weights: FallbackWeights(d)}
}

// Score computes the weighted sum per row. It never fails.
func (f *FallbackScorer) Score(_ context.Context, rows []Features) ([]float64, error) {
	out := make([]float64, len(rows))
	for i, row := range rows {
		var sum float64
		for j, w := range f.weights {
			sum += w * row[j]
		}
		out[i] = sum
	}
	return out, nil
}

// Recommendation is one ranked counterparty.
type Recommendation struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// CheckScores verifies a scorer returned one probability per row.
func CheckScores(rows []Features, probs []float64) error {
	if len(probs) != len(rows) {
		return fmt.Errorf("scorer returned %d probabilities for %d rows", len(probs), len(rows))
	}
	return nil
}
