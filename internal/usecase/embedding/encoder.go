package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/9Skies9/InvestLink/internal/domain"
	"github.com/9Skies9/InvestLink/internal/domain/match"
)

// TextEncoder turns descriptions into unit vectors for the similarity feature.
// Blank texts map to a zero vector and are never sent to the provider.
type TextEncoder struct {
	inner domain.Embedder
	dims  int
}

// NewTextEncoder wraps a provider. dims sizes zero vectors when a batch is entirely blank; 0 means unknown.
func NewTextEncoder(inner domain.Embedder, dims int) *TextEncoder {
	return &TextEncoder{inner: inner, dims: dims}
}

// Embed encodes one text.
func (e *TextEncoder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch encodes texts in one provider call. Duplicate texts are sent once.
func (e *TextEncoder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	slot := make(map[string]int, len(texts))
	var unique []string
	for _, t := range texts {
		key := strings.TrimSpace(t)
		if key == "" {
			continue
		}
		if _, ok := slot[key]; !ok {
			slot[key] = len(unique)
			unique = append(unique, key)
		}
	}

	var embedded [][]float32
	dims := e.dims
	if len(unique) > 0 {
		res, err := domain.BatchOrFallback(ctx, e.inner, unique)
		if err != nil {
			return nil, providerError(err)
		}
		if len(res.Embeddings) != len(unique) {
			return nil, fmt.Errorf("%w: got %d vectors for %d texts",
				domain.ErrEmbeddingProviderError, len(res.Embeddings), len(unique))
		}
		domain.TokenUsageFromContext(ctx).Add(res.TotalTokens)

		dims = len(res.Embeddings[0])
		embedded = make([][]float32, len(unique))
		for i, v := range res.Embeddings {
			if len(v) != dims {
				return nil, fmt.Errorf("%w: %d vs %d", domain.ErrEmbeddingDimMismatch, len(v), dims)
			}
			embedded[i] = match.Normalize(append([]float32(nil), v...))
		}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		if j, ok := slot[strings.TrimSpace(t)]; ok {
			out[i] = embedded[j]
			continue
		}
		out[i] = make([]float32, dims)
	}
	return out, nil
}

// Warm forwards to the provider.
func (e *TextEncoder) Warm(ctx context.Context) error {
	if w, ok := e.inner.(domain.Warmer); ok {
		if err := w.Warm(ctx); err != nil {
			return providerError(err)
		}
	}
	return nil
}

// HealthCheck forwards to the provider.
func (e *TextEncoder) HealthCheck(ctx context.Context) error {
	if hc, ok := e.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func providerError(err error) error {
	if errors.Is(err, domain.ErrEmbeddingProviderError) {
		return fmt.Errorf("encode: %w", err)
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
}
