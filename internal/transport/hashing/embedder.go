// Package hashing is an offline embedding provider based on feature hashing.
// Vectors are deterministic, so it doubles as the provider for demos and tests.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/9Skies9/InvestLink/internal/domain"
	"github.com/9Skies9/InvestLink/internal/metrics"
)

// DefaultDimensions is used when the configured size is not positive.
const DefaultDimensions = 512

const providerName = "hashing"

// Embedder maps bag-of-words counts into a fixed number of buckets.
type Embedder struct {
	dims int
}

// NewEmbedder creates an embedder producing dims-sized vectors.
func NewEmbedder(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dims: dims}
}

// Dimensions reports the vector size.
func (e *Embedder) Dimensions() int { return e.dims }

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("hashing embed: %w", err)
	}
	start := time.Now()
	vec, tokens := e.vectorize(text)
	e.observe(start, tokens)
	return domain.EmbeddingResult{Embedding: vec, PromptTokens: tokens, TotalTokens: tokens}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	if err := ctx.Err(); err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("hashing batch embed: %w", err)
	}

	start := time.Now()
	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, t := range texts {
		vec, tokens := e.vectorize(t)
		out.Embeddings[i] = vec
		out.PromptTokens += tokens
	}
	out.TotalTokens = out.PromptTokens
	e.observe(start, out.TotalTokens)
	return out, nil
}

// HealthCheck always succeeds; there is nothing remote to reach.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

func (e *Embedder) observe(start time.Time, tokens int) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, providerName, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, providerName).Observe(time.Since(start).Seconds())
	metrics.EmbeddingTokensTotal.WithLabelValues(providerName, providerName, "total").Add(float64(tokens))
}

// vectorize uses signed hashing: a second hash bit picks the sign so collisions cancel on average.
func (e *Embedder) vectorize(text string) ([]float32, int) {
	vec := make([]float32, e.dims)
	words := Tokenize(text)
	for _, w := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dims))
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}
	return vec, len(words)
}

// Tokenize lower-cases NFKC-normalized text and splits it on anything that is not a letter or digit.
func Tokenize(text string) []string {
	text = strings.ToLower(norm.NFKC.String(text))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
