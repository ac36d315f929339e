package recommend

import (
	"math"
	"math/rand/v2"
	"sort"
	"sync"
)

// Probability bounds applied before sampling so no candidate is impossible or certain.
const (
	MinProbability = 0.01
	MaxProbability = 0.99
)

// Clip bounds p to [MinProbability, MaxProbability].
func Clip(p float64) float64 {
	switch {
	case p < MinProbability || math.IsNaN(p):
		return MinProbability
	case p > MaxProbability:
		return MaxProbability
	default:
		return p
	}
}

// Pick is one sampled index and its clipped probability.
type Pick struct {
	Index       int
	Probability float64
}

// Sampler draws a top-k subset weighted by probability, without replacement.
type Sampler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampler seeds a PCG generator.
func NewSampler(seed uint64) *Sampler {
	return NewSamplerWithRand(newRand(seed))
}

// NewSamplerWithRand wraps an existing generator.
func NewSamplerWithRand(rng *rand.Rand) *Sampler {
	return &Sampler{rng: rng}
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sample draws min(k, len(probs)) picks from the shared generator.
func (s *Sampler) Sample(probs []float64, k int) []Pick {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sample(s.rng, probs, k)
}

// SampleSeeded draws with a private generator, leaving the shared one untouched.
func (s *Sampler) SampleSeeded(probs []float64, k int, seed uint64) []Pick {
	return sample(newRand(seed), probs, k)
}

// sample returns picks ordered by clipped probability descending.
// Equal probabilities keep input order.
func sample(rng *rand.Rand, probs []float64, k int) []Pick {
	n := len(probs)
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	clipped := make([]float64, n)
	var total float64
	for i, p := range probs {
		clipped[i] = Clip(p)
		total += clipped[i]
	}

	taken := make([]bool, n)
	picks := make([]Pick, 0, k)
	for len(picks) < k {
		r := rng.Float64() * total
		chosen := -1
		for i, w := range clipped {
			if taken[i] {
				continue
			}
			chosen = i
			if r < w {
				break
			}
			r -= w
		}
		taken[chosen] = true
		total -= clipped[chosen]
		picks = append(picks, Pick{Index: chosen, Probability: clipped[chosen]})
	}

	sort.SliceStable(picks, func(i, j int) bool {
		if picks[i].Probability != picks[j].Probability {
			return picks[i].Probability > picks[j].Probability
		}
		return picks[i].Index < picks[j].Index
	})
	return picks
}
