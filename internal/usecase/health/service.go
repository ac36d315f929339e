package health

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates every dependency failed.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckNotReady marks an engine that has not loaded yet. It loads lazily, so this is not a failure.
	CheckNotReady CheckResult = "not_ready"
)

// DefaultCheckTimeout bounds each dependency check.
const DefaultCheckTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Ready  bool
	Checks map[string]CheckResult
}

type depCheck struct {
	name string
	fn   func(ctx context.Context) error
}

// Service coordinates health checks.
type Service struct {
	deps    []depCheck
	engine  ReadinessChecker
	timeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithSnapshot adds a check for the SQL system of record.
func WithSnapshot(p DBPinger) Option {
	return func(s *Service) {
		if p != nil {
			s.deps = append(s.deps, depCheck{name: "snapshot", fn: p.Ping})
		}
	}
}

// WithEngine reports engine readiness.
func WithEngine(r ReadinessChecker) Option {
	return func(s *Service) { s.engine = r }
}

// WithTimeout overrides DefaultCheckTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// New creates a Service. db and embedding can be nil.
func New(db DBPinger, embedding EmbeddingChecker, opts ...Option) *Service {
	s := &Service{timeout: DefaultCheckTimeout}
	if db != nil {
		s.deps = append(s.deps, depCheck{name: "database", fn: db.Ping})
	}
	if embedding != nil {
		s.deps = append(s.deps, depCheck{name: "embedding", fn: embedding.HealthCheck})
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Check runs all dependency checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult, len(s.deps)+1)
	var mu sync.Mutex
	failed := 0

	var g errgroup.Group
	for _, p := range s.deps {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			res := CheckOK
			if err := p.fn(pctx); err != nil {
				res = CheckError
			}
			mu.Lock()
			checks[p.name] = res
			if res == CheckError {
				failed++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	ready := true
	if s.engine != nil {
		ready = s.engine.IsReady()
		if ready {
			checks["engine"] = CheckOK
		} else {
			checks["engine"] = CheckNotReady
		}
	}

	status := Healthy
	switch {
	case failed > 0 && failed == len(s.deps):
		status = Unhealthy
	case failed > 0:
		status = Degraded
	}

	return Report{Status: status, Ready: ready, Checks: checks}
}
