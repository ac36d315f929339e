package recommend

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"github.com/9Skies9/InvestLink/internal/domain/interaction"
	"github.com/9Skies9/InvestLink/internal/domain/match"
	"github.com/9Skies9/InvestLink/internal/domain/snapshot"
)

type stubSource struct {
	snap  snapshot.Snapshot
	err   error
	calls atomic.Int32

	// entered and release, when set, let a test hold a load in flight.
	entered chan struct{}
	release chan struct{}
}

func (s *stubSource) Load(ctx context.Context) (snapshot.Snapshot, error) {
	s.calls.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return snapshot.Snapshot{}, ctx.Err()
		}
	}
	return s.snap, s.err
}

type stubEncoder struct {
	mu    sync.Mutex
	vecs  map[string][]float32
	err   error
	calls int
	block bool
}

func (e *stubEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if e.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := e.vecs[t]; ok {
			out[i] = v
			continue
		}
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (e *stubEncoder) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// fixedScorer returns probabilities by shortlist position.
type fixedScorer struct {
	probs []float64
}

func (f *fixedScorer) Score(_ context.Context, rows []match.Features) ([]float64, error) {
	out := make([]float64, len(rows))
	copy(out, f.probs)
	return out, nil
}

type stubModels struct {
	scorers map[match.Direction]match.Scorer
	err     error
}

func (m *stubModels) Load(_ context.Context, dir match.Direction) (match.Scorer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.scorers[dir], nil
}

// testSnapshot has one seeker and three providers with strictly decreasing prefilter scores.
func testSnapshot() snapshot.Snapshot {
	return snapshot.Snapshot{
		Seekers: []snapshot.SeekerRow{
			{ID: 1, Name: "Ada Ventures", Description: "AI and fintech at seed", Categories: "AI, Fintech",
				Stages: "Seed", Localities: "USA", MinAmount: "$50k", MaxAmount: "$200k"},
			{ID: 2, Name: "Demo Investor", Description: "demo", Categories: "AI", Stages: "Seed", Localities: "USA"},
		},
		Providers: []snapshot.ProviderRow{
			{ID: 1, Name: "Demo Co", Description: "demo", Categories: "AI", Stage: "Seed", Locality: "USA", Amount: "$100k"},
			{ID: 10, Name: "Acme AI", Description: "AI underwriting", Categories: "AI", Stage: "Seed", Locality: "USA", Amount: "$100k"},
			{ID: 11, Name: "Beta Pay", Description: "payments", Categories: "Fintech", Stage: "Seed", Locality: "EU", Amount: "$100k"},
			{ID: 12, Name: "Gamma Bio", Description: "biotech", Categories: "Bio", Stage: "Series B", Locality: "EU", Amount: ""},
		},
	}
}

func testConfig() Config {
	return Config{
		ShortlistSize:       30,
		DefaultK:            5,
		MaxK:                20,
		ExcludedProviderIDs: []int64{1},
		ExcludedSeekerIDs:   []int64{2},
		Seed:                42,
		MaxConcurrent:       4,
	}
}

func newTestEngine(t *testing.T, src *stubSource, enc *stubEncoder, models ModelLoader, cfg Config) *Engine {
	t.Helper()
	if enc == nil {
		enc = &stubEncoder{}
	}
	return New(src, enc, models, cfg, zap.NewNop())
}

func decision(subject, object int64) snapshot.DecisionRow {
	return snapshot.DecisionRow{Subject: subject, Object: object, Status: interaction.StatusAccept}
}
