package recommend

import (
	"math/rand/v2"
	"testing"
)

func TestSample_AllCandidatesWhenKExceedsN(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		picks := NewSampler(seed).Sample([]float64{0.9, 0.5, 0.2}, 5)
		if len(picks) != 3 {
			t.Fatalf("seed %d: got %d picks, want 3", seed, len(picks))
		}
		want := []float64{0.9, 0.5, 0.2}
		for i, p := range picks {
			if p.Index != i || p.Probability != want[i] {
				t.Fatalf("seed %d: picks = %+v", seed, picks)
			}
		}
	}
}

func TestSample_BoundsAndOrdering(t *testing.T) {
	probs := []float64{-1, 0, 0.3, 0.7, 1.5, 0.7, 0.05, 0.9}
	s := NewSampler(7)
	for round := 0; round < 200; round++ {
		picks := s.Sample(probs, 4)
		if len(picks) != 4 {
			t.Fatalf("got %d picks, want 4", len(picks))
		}
		seen := map[int]bool{}
		for i, p := range picks {
			if seen[p.Index] {
				t.Fatalf("index %d drawn twice", p.Index)
			}
			seen[p.Index] = true
			if p.Probability < MinProbability || p.Probability > MaxProbability {
				t.Fatalf("probability %v outside clip range", p.Probability)
			}
			if i > 0 && p.Probability > picks[i-1].Probability {
				t.Fatalf("picks not descending: %+v", picks)
			}
		}
	}
}

func TestSample_EmptyAndZeroK(t *testing.T) {
	s := NewSampler(1)
	if got := s.Sample(nil, 5); len(got) != 0 {
		t.Errorf("Sample(nil) = %v", got)
	}
	if got := s.Sample([]float64{0.5}, 0); len(got) != 0 {
		t.Errorf("Sample(k=0) = %v", got)
	}
}

func TestSample_FavorsHighProbability(t *testing.T) {
	s := NewSampler(42)
	hits := 0
	for i := 0; i < 1000; i++ {
		picks := s.Sample([]float64{0.01, 0.99}, 1)
		if picks[0].Index == 1 {
			hits++
		}
	}
	if hits < 950 {
		t.Errorf("high-probability candidate drawn %d/1000 times", hits)
	}
}

func TestSampleSeeded_ReproducibleAndIsolated(t *testing.T) {
	probs := []float64{0.2, 0.4, 0.6, 0.8, 0.3, 0.5}

	a := NewSampler(1).SampleSeeded(probs, 3, 99)
	b := NewSampler(2).SampleSeeded(probs, 3, 99)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed gave %v and %v", a, b)
		}
	}

	shared := rand.New(rand.NewPCG(5, 5))
	reference := rand.New(rand.NewPCG(5, 5))
	s := NewSamplerWithRand(shared)
	s.SampleSeeded(probs, 3, 123)
	if shared.Uint64() != reference.Uint64() {
		t.Error("seeded sampling advanced the shared generator")
	}
}

func TestClip(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{-3, MinProbability},
		{0, MinProbability},
		{0.5, 0.5},
		{1, MaxProbability},
	}
	for _, tt := range tests {
		if got := Clip(tt.in); got != tt.want {
			t.Errorf("Clip(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
