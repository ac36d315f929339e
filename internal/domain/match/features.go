package match

import "github.com/9Skies9/InvestLink/internal/domain/profile"

// Feature indexes. The order is the column order the trained models expect.
const (
	FeatureText = iota
	FeatureCategory
	FeatureStage
	FeatureLocality
	FeatureAmount

	NumFeatures
)

// Features is the per-pair input to a Scorer.
type Features [NumFeatures]float64

// NewFeatures computes the structured components for a pair and attaches the text similarity.
func NewFeatures(s *profile.Seeker, p *profile.Provider, textSim float64) Features {
	return Features{
		FeatureText:     textSim,
		FeatureCategory: Jaccard(s.Categories(), p.Categories()),
		FeatureStage:    StageFit(s, p),
		FeatureLocality: LocalityFit(s, p),
		FeatureAmount:   PairAmountFit(s, p),
	}
}
