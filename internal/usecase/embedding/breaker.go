package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/9Skies9/InvestLink/internal/domain"
	"github.com/9Skies9/InvestLink/internal/metrics"
)

// BreakerSettings configures the provider circuit breaker.
type BreakerSettings struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval clears counts while closed. Zero keeps counts until the state changes.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// MinRequests before the failure ratio is considered.
	MinRequests uint32
	// FailureRatio at or above which the breaker opens.
	FailureRatio float64
}

// DefaultBreakerSettings mirror a remote API that should recover within a minute.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:  2,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// withDefaults fills unset fields from DefaultBreakerSettings. Interval is left as given.
func (s BreakerSettings) withDefaults() BreakerSettings {
	d := DefaultBreakerSettings()
	if s.MaxRequests == 0 {
		s.MaxRequests = d.MaxRequests
	}
	if s.Timeout <= 0 {
		s.Timeout = d.Timeout
	}
	if s.MinRequests == 0 {
		s.MinRequests = d.MinRequests
	}
	if s.FailureRatio <= 0 {
		s.FailureRatio = d.FailureRatio
	}
	return s
}

// BreakerEmbedder fails fast while the remote provider is unhealthy.
type BreakerEmbedder struct {
	inner  domain.Embedder
	cb     *gobreaker.CircuitBreaker[domain.BatchEmbeddingResult]
	name   string
	logger *zap.Logger
}

// NewBreakerEmbedder wraps inner with a breaker named name.
func NewBreakerEmbedder(inner domain.Embedder, name string, s BreakerSettings, logger *zap.Logger) *BreakerEmbedder {
	s = s.withDefaults()
	metrics.BreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[domain.BatchEmbeddingResult](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			if c.Requests < s.MinRequests {
				return false
			}
			return float64(c.TotalFailures)/float64(c.Requests) >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Embedding breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
			metrics.BreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.BreakerTransitionsTotal.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		// A caller giving up is not a provider fault.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	})

	return &BreakerEmbedder{inner: inner, cb: cb, name: name, logger: logger}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State exposes the breaker state for health reporting.
func (b *BreakerEmbedder) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerEmbedder) execute(fn func() (domain.BatchEmbeddingResult, error)) (domain.BatchEmbeddingResult, error) {
	res, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.BreakerRequestsTotal.WithLabelValues(b.name, "success").Inc()
		return res, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.BreakerRequestsTotal.WithLabelValues(b.name, "rejected").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
	default:
		metrics.BreakerRequestsTotal.WithLabelValues(b.name, "failure").Inc()
		return domain.BatchEmbeddingResult{}, err
	}
}

// Embed runs one text through the breaker.
func (b *BreakerEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := b.execute(func() (domain.BatchEmbeddingResult, error) {
		r, err := b.inner.Embed(ctx, text)
		if err != nil {
			return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // wrapped by callers
		}
		return domain.BatchEmbeddingResult{
			Embeddings:   [][]float32{r.Embedding},
			PromptTokens: r.PromptTokens,
			TotalTokens:  r.TotalTokens,
		}, nil
	})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("breaker %s: %w", b.name, err)
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed runs a whole batch as one breaker call.
func (b *BreakerEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	res, err := b.execute(func() (domain.BatchEmbeddingResult, error) {
		return domain.BatchOrFallback(ctx, b.inner, texts)
	})
	if err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("breaker %s: %w", b.name, err)
	}
	return res, nil
}

// HealthCheck reports an open breaker as unhealthy without calling the provider.
func (b *BreakerEmbedder) HealthCheck(ctx context.Context) error {
	if b.cb.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w: circuit %s open", domain.ErrEmbeddingProviderError, b.name)
	}
	if hc, ok := b.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

// Warm forwards to the provider.
func (b *BreakerEmbedder) Warm(ctx context.Context) error {
	if w, ok := b.inner.(domain.Warmer); ok {
		return w.Warm(ctx)
	}
	return nil
}
