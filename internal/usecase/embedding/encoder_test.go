package embedding

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/9Skies9/InvestLink/internal/domain"
)

func TestTextEncoder_NormalizesVectors(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{3, 4}, TotalTokens: 1}}
	enc := NewTextEncoder(inner, 2)

	v, err := enc.Embed(context.Background(), "fintech")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(float64(v[0])-0.6) > 1e-6 || math.Abs(float64(v[1])-0.8) > 1e-6 {
		t.Errorf("vector not normalized: %v", v)
	}
	if inner.result.Embedding[0] != 3 {
		t.Error("provider vector mutated in place")
	}
}

func TestTextEncoder_EmptyBatch(t *testing.T) {
	inner := &mockEmbedder{}
	vecs, err := NewTextEncoder(inner, 2).EmbedBatch(context.Background(), nil)
	if err != nil || len(vecs) != 0 {
		t.Fatalf("vecs=%v err=%v", vecs, err)
	}
	if inner.batchCalls != 0 {
		t.Error("provider called for empty batch")
	}
}

func TestTextEncoder_BlankAndDuplicateTexts(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 2}}
	enc := NewTextEncoder(inner, 0)

	ctx, usage := domain.ContextWithTokenUsage(context.Background())
	vecs, err := enc.EmbedBatch(ctx, []string{"ai lending", "", "ai lending ", "   ", "biotech"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 5 {
		t.Fatalf("len = %d, want 5", len(vecs))
	}
	if got := inner.seen[0]; len(got) != 2 || got[0] != "ai lending" || got[1] != "biotech" {
		t.Errorf("provider saw %v", got)
	}
	for _, i := range []int{1, 3} {
		if len(vecs[i]) != 3 || vecs[i][0] != 0 {
			t.Errorf("blank text %d -> %v, want zero vector of dim 3", i, vecs[i])
		}
	}
	if usage.Tokens != 4 {
		t.Errorf("usage tokens = %d, want 4", usage.Tokens)
	}
}

func TestTextEncoder_AllBlankUsesConfiguredDims(t *testing.T) {
	inner := &mockEmbedder{}
	vecs, err := NewTextEncoder(inner, 8).EmbedBatch(context.Background(), []string{"", " "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs[0]) != 8 || inner.batchCalls != 0 {
		t.Errorf("vecs[0]=%v calls=%d", vecs[0], inner.batchCalls)
	}
}

func TestTextEncoder_WrapsProviderError(t *testing.T) {
	innerErr := errors.New("timeout talking to provider")
	_, err := NewTextEncoder(&mockEmbedder{batchErr: innerErr}, 2).EmbedBatch(context.Background(), []string{"x"})
	if !errors.Is(err, domain.ErrEmbeddingProviderError) || !errors.Is(err, innerErr) {
		t.Errorf("err = %v", err)
	}
}
