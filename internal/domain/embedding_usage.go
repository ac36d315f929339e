package domain

import "context"

type tokenUsageKey struct{}

// TokenUsage accumulates embedding tokens spent while serving one recommendation request.
// The HTTP handler attaches it to the context and reports it in the X-Embedding-Tokens header.
type TokenUsage struct {
	Tokens int
	Calls  int
}

// ContextWithTokenUsage returns a context carrying a fresh usage collector.
func ContextWithTokenUsage(ctx context.Context) (context.Context, *TokenUsage) {
	u := &TokenUsage{}
	return context.WithValue(ctx, tokenUsageKey{}, u), u
}

// TokenUsageFromContext returns the collector, or nil when none is attached.
func TokenUsageFromContext(ctx context.Context) *TokenUsage {
	u, _ := ctx.Value(tokenUsageKey{}).(*TokenUsage)
	return u
}

// Add records one provider call. Safe on a nil receiver.
func (u *TokenUsage) Add(tokens int) {
	if u == nil {
		return
	}
	u.Tokens += tokens
	u.Calls++
}
