package match

import (
	"math"

	"github.com/9Skies9/InvestLink/internal/domain/profile"
)

// NeutralAmountFit is returned when either side's financials are unknown.
const NeutralAmountFit = 0.3

// Prefilter weights for category, stage, locality and amount fit.
const (
	PrefilterCategoryWeight = 0.35
	PrefilterStageWeight    = 0.25
	PrefilterLocalityWeight = 0.20
	PrefilterAmountWeight   = 0.20
)

// Jaccard is |a∩b| / |a∪b|. Two empty sets score 0.
func Jaccard(a, b profile.Set) float64 {
	if a.Len() == 0 && b.Len() == 0 {
		return 0
	}
	small, large := a, b
	if small.Len() > large.Len() {
		small, large = large, small
	}
	inter := 0
	for k := range small {
		if large.Has(k) {
			inter++
		}
	}
	union := a.Len() + b.Len() - inter
	return float64(inter) / float64(union)
}

// StageFit is 1 when the provider's stage is one the seeker accepts.
func StageFit(s *profile.Seeker, p *profile.Provider) float64 {
	return membership(s.Stages(), p.Stage())
}

// LocalityFit is 1 when the provider's locality is one the seeker accepts.
func LocalityFit(s *profile.Seeker, p *profile.Provider) float64 {
	return membership(s.Localities(), p.Locality())
}

func membership(set profile.Set, label string) float64 {
	if set.Has(label) {
		return 1
	}
	return 0
}

// AmountFit compares the provider's raise against the seeker's check range.
// Below the minimum it ramps linearly to the neutral value; above it decays with amount/midpoint.
func AmountFit(minAmount, maxAmount, amount *float64) float64 {
	if minAmount == nil || maxAmount == nil || amount == nil {
		return NeutralAmountFit
	}
	lo, hi, a := *minAmount, *maxAmount, *amount
	if lo <= 0 || hi <= 0 || a <= 0 {
		return NeutralAmountFit
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	mid := 0.5 * (lo + hi)

	if a < lo {
		return math.Max(0, math.Min(NeutralAmountFit, a/lo*NeutralAmountFit))
	}

	base := 1 / (1 + a/mid)
	return math.Min(1, base*2)
}

// PairAmountFit is AmountFit over a profile pair.
func PairAmountFit(s *profile.Seeker, p *profile.Provider) float64 {
	return AmountFit(s.MinAmount(), s.MaxAmount(), p.Amount())
}

// PrefilterScore is the cheap structured score used to build the shortlist.
// It does not look at descriptions.
func PrefilterScore(s *profile.Seeker, p *profile.Provider) float64 {
	return PrefilterCategoryWeight*Jaccard(s.Categories(), p.Categories()) +
		PrefilterStageWeight*StageFit(s, p) +
		PrefilterLocalityWeight*LocalityFit(s, p) +
		PrefilterAmountWeight*PairAmountFit(s, p)
}
