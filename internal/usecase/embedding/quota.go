package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/9Skies9/InvestLink/internal/domain"
	"github.com/9Skies9/InvestLink/internal/metrics"
)

// QuotaAction decides what happens once a window is spent.
type QuotaAction string

const (
	// QuotaWarn logs and lets the call through.
	QuotaWarn QuotaAction = "warn"
	// QuotaReject fails the call with domain.ErrEmbeddingQuotaExceeded.
	QuotaReject QuotaAction = "reject"
)

// QuotaStore persists window counters so a restart does not reset spend.
type QuotaStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// Quota windows.
const (
	PeriodDaily   = "daily"
	PeriodMonthly = "monthly"
)

type window struct {
	period string
	layout string
	limit  int64
	used   int64
	start  time.Time
}

func (w *window) floor(t time.Time) time.Time {
	if w.period == PeriodDaily {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// roll zeroes the counter when t is past the window.
func (w *window) roll(t time.Time) {
	if f := w.floor(t); f.After(w.start) {
		w.used = 0
		w.start = f
	}
}

func (w *window) exceeded() bool { return w.limit > 0 && w.used >= w.limit }

func (w *window) remaining() int64 {
	if w.limit == 0 {
		return -1
	}
	return max(w.limit-w.used, 0)
}

// Quota caps embedding tokens per day and per month.
// Check is in-memory; Record updates memory and then writes through to the store.
type Quota struct {
	mu       sync.Mutex
	windows  []*window
	action   QuotaAction
	provider string
	store    QuotaStore
	logger   *zap.Logger
	now      func() time.Time
}

// NewQuota creates a tracker. A zero limit disables that window.
func NewQuota(provider string, dailyLimit, monthlyLimit int64, action QuotaAction, logger *zap.Logger) *Quota {
	q := &Quota{
		action:   action,
		provider: provider,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	now := q.now()
	q.windows = []*window{
		{period: PeriodDaily, layout: "2006-01-02", limit: dailyLimit},
		{period: PeriodMonthly, layout: "2006-01", limit: monthlyLimit},
	}
	for _, w := range q.windows {
		w.start = w.floor(now)
	}
	return q
}

// WithStore attaches persistence and seeds counters from it.
func (q *Quota) WithStore(ctx context.Context, store QuotaStore) *Quota {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.store = store
	now := q.now()
	for _, w := range q.windows {
		used, err := store.Get(ctx, q.key(w, now))
		if err != nil {
			q.logger.Warn("Failed to load embedding quota", zap.String("period", w.period), zap.Error(err))
			continue
		}
		w.used = used
	}
	q.logger.Info("Embedding quota loaded",
		zap.String("provider", q.provider),
		zap.Int64("daily_used", q.windows[0].used),
		zap.Int64("monthly_used", q.windows[1].used),
	)
	return q
}

func (q *Quota) key(w *window, t time.Time) string {
	return fmt.Sprintf("%squota:%s:%s:%s", domain.KeyPrefix, q.provider, w.period, t.Format(w.layout))
}

// Check fails when a window is spent and the action is reject.
func (q *Quota) Check(_ context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.now()
	spent := ""
	for _, w := range q.windows {
		w.roll(now)
		if w.exceeded() {
			spent = w.period
			break
		}
	}
	if spent == "" {
		return nil
	}
	if q.action == QuotaReject {
		return fmt.Errorf("%w: %s window", domain.ErrEmbeddingQuotaExceeded, spent)
	}
	q.logger.Warn("Embedding quota exceeded",
		zap.String("provider", q.provider),
		zap.String("period", spent),
	)
	return nil
}

// Record adds spent tokens.
func (q *Quota) Record(ctx context.Context, tokens int64) {
	if tokens <= 0 {
		return
	}

	q.mu.Lock()
	now := q.now()
	keys := make([]string, 0, len(q.windows))
	for _, w := range q.windows {
		w.roll(now)
		w.used += tokens
		metrics.EmbeddingQuotaRemaining.WithLabelValues(q.provider, w.period).Set(float64(w.remaining()))
		keys = append(keys, q.key(w, now))
	}
	store := q.store
	q.mu.Unlock()

	if store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			q.logger.Warn("Failed to persist embedding quota", zap.String("key", key), zap.Error(err))
		}
	}
}

// Remaining returns tokens left in a window, or -1 when it is unlimited.
func (q *Quota) Remaining(period string) int64 {
	found := false
	n := q.read(period, func(w *window) int64 {
		found = true
		return w.remaining()
	})
	if !found {
		return -1
	}
	return n
}

func (q *Quota) read(period string, fn func(w *window) int64) int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.now()
	for _, w := range q.windows {
		if w.period == period {
			w.roll(now)
			return fn(w)
		}
	}
	return 0
}

func limitOf(w *window) int64 { return w.limit }
func usedOf(w *window) int64  { return w.used }

// DailyLimit returns the daily cap, 0 when unlimited.
func (q *Quota) DailyLimit() int64 { return q.read(PeriodDaily, limitOf) }

// MonthlyLimit returns the monthly cap, 0 when unlimited.
func (q *Quota) MonthlyLimit() int64 { return q.read(PeriodMonthly, limitOf) }

// DailyUsed returns tokens spent today.
func (q *Quota) DailyUsed() int64 { return q.read(PeriodDaily, usedOf) }

// MonthlyUsed returns tokens spent this month.
func (q *Quota) MonthlyUsed() int64 { return q.read(PeriodMonthly, usedOf) }

// RemainingDaily is Remaining(PeriodDaily).
func (q *Quota) RemainingDaily() int64 { return q.Remaining(PeriodDaily) }

// RemainingMonthly is Remaining(PeriodMonthly).
func (q *Quota) RemainingMonthly() int64 { return q.Remaining(PeriodMonthly) }
