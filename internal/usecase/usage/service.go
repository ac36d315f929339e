package usage

import (
	"context"
	"time"

	domusage "github.com/9Skies9/InvestLink/internal/domain/usage"
)

// Service reports embedding token spend.
type Service struct {
	qr       QuotaReader
	provider string
	now      func() time.Time
}

// New creates a Service. qr can be nil (unlimited mode).
func New(qr QuotaReader, provider string) *Service {
	return &Service{qr: qr, provider: provider, now: time.Now}
}

// GetReport builds a usage report for the window containing now.
func (s *Service) GetReport(_ context.Context, period domusage.Period) domusage.Report {
	start, end := period.Bounds(s.now())
	r := domusage.Report{
		Period:      period,
		PeriodStart: start,
		PeriodEnd:   end,
		Provider:    s.provider,
		Remaining:   -1,
	}
	if s.qr == nil {
		return r
	}

	if period == domusage.PeriodMonth {
		r.Limit, r.Used, r.Remaining = s.qr.MonthlyLimit(), s.qr.MonthlyUsed(), s.qr.RemainingMonthly()
	} else {
		r.Limit, r.Used, r.Remaining = s.qr.DailyLimit(), s.qr.DailyUsed(), s.qr.RemainingDaily()
	}
	r.Exhausted = r.Limit > 0 && r.Remaining <= 0
	return r
}
