package recommend

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/9Skies9/InvestLink/internal/domain"
	"github.com/9Skies9/InvestLink/internal/domain/interaction"
	"github.com/9Skies9/InvestLink/internal/domain/match"
	"github.com/9Skies9/InvestLink/internal/metrics"
)

// Reason explains an empty result.
type Reason string

// Empty-result reasons.
const (
	ReasonNone           Reason = ""
	ReasonUnknownSubject Reason = "unknown_subject"
	ReasonNoCandidates   Reason = "no_candidates"
	ReasonTimeout        Reason = "timeout"
)

// Result is the ranked answer for one request.
type Result struct {
	Items  []match.Recommendation `json:"items"`
	Reason Reason                 `json:"reason,omitempty"`
}

// Config tunes the engine.
type Config struct {
	ShortlistSize       int
	DefaultK            int
	MaxK                int
	ExcludedSeekerIDs   []int64
	ExcludedProviderIDs []int64
	Seed                uint64
	MaxConcurrent       int
	RequestTimeout      time.Duration
}

// Defaults.
const (
	DefaultK              = 5
	DefaultMaxK           = 50
	DefaultSeed           = 42
	DefaultRequestTimeout = 5 * time.Second
)

func (c *Config) applyDefaults() {
	if c.ShortlistSize <= 0 {
		c.ShortlistSize = DefaultShortlistSize
	}
	if c.DefaultK <= 0 {
		c.DefaultK = DefaultK
	}
	if c.MaxK < c.DefaultK {
		c.MaxK = max(DefaultMaxK, c.DefaultK)
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = runtime.NumCPU()
	}
}

// ScorerKind tells whether a direction runs on the trained model or the heuristic.
type ScorerKind string

// Scorer kinds.
const (
	ScorerModel    ScorerKind = "model"
	ScorerFallback ScorerKind = "fallback"
)

// Stats summarizes the loaded state.
type Stats struct {
	Ready             bool                           `json:"ready"`
	Providers         int                            `json:"providers"`
	Seekers           int                            `json:"seekers"`
	SeekerDecisions   int                            `json:"seeker_decisions"`
	ProviderDecisions int                            `json:"provider_decisions"`
	Scorers           map[match.Direction]ScorerKind `json:"scorers,omitempty"`
	LoadedAt          time.Time                      `json:"loaded_at,omitzero"`
}

type state struct {
	profiles *ProfileStore
	ledger   *Ledger
	scorers  map[match.Direction]match.Scorer
	kinds    map[match.Direction]ScorerKind
	loadedAt time.Time
}

// Engine ranks counterparties. It loads lazily on first use and can be reloaded while serving.
type Engine struct {
	src       Source
	enc       Encoder
	models    ModelLoader
	cfg       Config
	logger    *zap.Logger
	prefilter *Prefilter
	sampler   *Sampler
	sem       *semaphore.Weighted

	loadMu sync.Mutex
	state  atomic.Pointer[state]

	// journalMu serializes ledger mutations against the state swap.
	journalMu sync.Mutex
	loading   bool
	journal   []interaction.Event
}

// Option customizes an Engine.
type Option func(*Engine)

// WithSampler replaces the default seeded sampler.
func WithSampler(s *Sampler) Option {
	return func(e *Engine) { e.sampler = s }
}

// New creates an engine. Nothing is loaded until Load or the first recommendation.
func New(src Source, enc Encoder, models ModelLoader, cfg Config, logger *zap.Logger, opts ...Option) *Engine {
	cfg.applyDefaults()
	e := &Engine{
		src:       src,
		enc:       enc,
		models:    models,
		cfg:       cfg,
		logger:    logger,
		prefilter: NewPrefilter(cfg.ShortlistSize, cfg.ExcludedSeekerIDs, cfg.ExcludedProviderIDs),
		sampler:   NewSampler(cfg.Seed),
		sem:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// IsReady reports whether a state has been loaded.
func (e *Engine) IsReady() bool {
	return e.state.Load() != nil
}

// Load builds the state once. Concurrent callers wait for the first build;
// after a failure the next caller retries.
func (e *Engine) Load(ctx context.Context) error {
	if e.state.Load() != nil {
		return nil
	}
	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	if e.state.Load() != nil {
		return nil
	}
	return e.build(ctx, "load")
}

// Reload rebuilds the state from the source and swaps it in.
// Requests keep using the previous state until the swap.
func (e *Engine) Reload(ctx context.Context) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	return e.build(ctx, "reload")
}

func (e *Engine) build(ctx context.Context, kind string) error {
	start := time.Now()

	e.journalMu.Lock()
	e.loading = true
	e.journal = nil
	e.journalMu.Unlock()

	st, err := e.loadState(ctx)
	if err != nil {
		e.journalMu.Lock()
		e.loading = false
		e.journal = nil
		e.journalMu.Unlock()

		metrics.EngineLoadsTotal.WithLabelValues(kind, "error").Inc()
		e.logger.Error("Engine load failed", zap.String("kind", kind), zap.Error(err))
		return fmt.Errorf("%s engine: %w", kind, err)
	}

	e.journalMu.Lock()
	replayed := len(e.journal)
	for _, ev := range e.journal {
		// Events were validated on arrival.
		_ = st.ledger.Apply(ev)
	}
	e.state.Store(st)
	e.loading = false
	e.journal = nil
	e.journalMu.Unlock()

	for dir, k := range st.kinds {
		mode := 0.0
		if k == ScorerModel {
			mode = 1
		}
		metrics.ScorerMode.WithLabelValues(string(dir)).Set(mode)
	}
	metrics.EngineLoadsTotal.WithLabelValues(kind, "ok").Inc()

	e.logger.Info("Engine state loaded",
		zap.String("kind", kind),
		zap.Int("providers", len(st.profiles.ProviderIDs())),
		zap.Int("seekers", len(st.profiles.SeekerIDs())),
		zap.Int("seeker_decisions", st.ledger.Pairs(interaction.SideSeeker)),
		zap.Int("provider_decisions", st.ledger.Pairs(interaction.SideProvider)),
		zap.String("seeker_scorer", string(st.kinds[match.SeekerToProviders])),
		zap.String("provider_scorer", string(st.kinds[match.ProviderToSeekers])),
		zap.Int("replayed_events", replayed),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (e *Engine) loadState(ctx context.Context) (*state, error) {
	snap, err := e.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSnapshotUnavailable, err)
	}

	profiles := NewProfileStore()
	if err := profiles.Load(snap); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}

	ledger := NewLedger()
	for _, d := range snap.SeekerDecisions {
		if err := ledger.Update(interaction.SideSeeker, d.Subject, d.Object, d.Status); err != nil {
			return nil, fmt.Errorf("seeker decision: %w", err)
		}
	}
	for _, d := range snap.ProviderDecisions {
		if err := ledger.Update(interaction.SideProvider, d.Subject, d.Object, d.Status); err != nil {
			return nil, fmt.Errorf("provider decision: %w", err)
		}
	}

	st := &state{
		profiles: profiles,
		ledger:   ledger,
		scorers:  make(map[match.Direction]match.Scorer, len(match.Directions)),
		kinds:    make(map[match.Direction]ScorerKind, len(match.Directions)),
		loadedAt: time.Now(),
	}
	for _, dir := range match.Directions {
		st.scorers[dir], st.kinds[dir] = e.loadScorer(ctx, dir)
	}

	if w, ok := e.enc.(domain.Warmer); ok {
		if err := w.Warm(ctx); err != nil {
			e.logger.Warn("Encoder warm-up failed, continuing", zap.Error(err))
		}
	}
	return st, nil
}

func (e *Engine) loadScorer(ctx context.Context, dir match.Direction) (match.Scorer, ScorerKind) {
	if e.models != nil {
		sc, err := e.models.Load(ctx, dir)
		switch {
		case err != nil:
			e.logger.Warn("Model artifact unusable, using fallback weights",
				zap.String("direction", string(dir)), zap.Error(err))
		case sc != nil:
			return sc, ScorerModel
		}
	}
	e.logger.Info("No trained model, using fallback weights", zap.String("direction", string(dir)))
	return match.NewFallbackScorer(dir), ScorerFallback
}

// RecordInteraction mirrors a swipe into the ledger.
func (e *Engine) RecordInteraction(side interaction.Side, subject, object int64, liked bool) error {
	return e.apply(interaction.Event{
		Side: side, Subject: subject, Object: object,
		Status: interaction.StatusFromLiked(liked),
	})
}

// UpdateInteraction mirrors a status change. Revert makes the object eligible again.
func (e *Engine) UpdateInteraction(side interaction.Side, subject, object int64, status interaction.Status) error {
	return e.apply(interaction.Event{Side: side, Subject: subject, Object: object, Status: status})
}

// apply updates the live ledger and journals the event while a build is running.
// With no state and no build in flight the event is dropped: the next load reads it from the source.
func (e *Engine) apply(ev interaction.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	e.journalMu.Lock()
	defer e.journalMu.Unlock()

	st := e.state.Load()
	if !e.loading && st == nil {
		return nil
	}
	if e.loading {
		e.journal = append(e.journal, ev)
	}
	if st != nil {
		if err := st.ledger.Apply(ev); err != nil {
			return err
		}
	}
	metrics.LedgerEventsTotal.WithLabelValues(string(ev.Side), ev.Status.String()).Inc()
	return nil
}

// IsDecided reports whether subject has decided on object in the loaded ledger.
func (e *Engine) IsDecided(side interaction.Side, subject, object int64) bool {
	st := e.state.Load()
	if st == nil {
		return false
	}
	return st.ledger.IsDecided(side, subject, object)
}

// Stats describes the loaded state.
func (e *Engine) Stats() Stats {
	st := e.state.Load()
	if st == nil {
		return Stats{}
	}
	kinds := make(map[match.Direction]ScorerKind, len(st.kinds))
	for d, k := range st.kinds {
		kinds[d] = k
	}
	return Stats{
		Ready:             true,
		Providers:         len(st.profiles.ProviderIDs()),
		Seekers:           len(st.profiles.SeekerIDs()),
		SeekerDecisions:   st.ledger.Pairs(interaction.SideSeeker),
		ProviderDecisions: st.ledger.Pairs(interaction.SideProvider),
		Scorers:           kinds,
		LoadedAt:          st.loadedAt,
	}
}

// RequestOption customizes a single recommendation call.
type RequestOption func(*request)

type request struct {
	seed    uint64
	hasSeed bool
}

// WithSeed makes the sampling of one request reproducible.
func WithSeed(seed uint64) RequestOption {
	return func(r *request) {
		r.seed = seed
		r.hasSeed = true
	}
}

// RecommendForSeeker ranks providers for a seeker.
func (e *Engine) RecommendForSeeker(ctx context.Context, seekerID int64, k int, opts ...RequestOption) (Result, error) {
	return e.recommend(ctx, match.SeekerToProviders, seekerID, k, opts)
}

// RecommendForProvider ranks seekers for a provider.
func (e *Engine) RecommendForProvider(ctx context.Context, providerID int64, k int, opts ...RequestOption) (Result, error) {
	return e.recommend(ctx, match.ProviderToSeekers, providerID, k, opts)
}

func (e *Engine) recommend(
	ctx context.Context, dir match.Direction, subjectID int64, k int, opts []RequestOption,
) (Result, error) {
	start := time.Now()
	res, err := e.run(ctx, dir, subjectID, e.clampK(k), opts)

	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case res.Reason != ReasonNone:
		outcome = string(res.Reason)
	}
	metrics.RecommendRequestsTotal.WithLabelValues(string(dir), outcome).Inc()
	metrics.RecommendDuration.WithLabelValues(string(dir)).Observe(time.Since(start).Seconds())

	e.logger.Debug("Recommendation served",
		zap.String("direction", string(dir)),
		zap.Int64("subject_id", subjectID),
		zap.Int("k", k),
		zap.Int("items", len(res.Items)),
		zap.String("outcome", outcome),
		zap.Duration("duration", time.Since(start)),
	)
	return res, err
}

func (e *Engine) clampK(k int) int {
	if k <= 0 {
		k = e.cfg.DefaultK
	}
	return min(k, e.cfg.MaxK)
}

func (e *Engine) run(
	ctx context.Context, dir match.Direction, subjectID int64, k int, opts []RequestOption,
) (Result, error) {
	if err := e.Load(ctx); err != nil {
		// A caller whose deadline passed during the first load sees a timeout, not a failure.
		if res, terr := timeoutOr(ctx, err); terr == nil {
			return res, nil
		}
		return Result{}, fmt.Errorf("%w: %w", domain.ErrEngineNotReady, err)
	}
	st := e.state.Load()

	var req request
	for _, o := range opts {
		o(&req)
	}

	if e.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RequestTimeout)
		defer cancel()
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return timeoutOr(ctx, err)
	}
	defer e.sem.Release(1)

	var (
		subjectText string
		shortlist   []Candidate
	)
	switch dir {
	case match.SeekerToProviders:
		s, ok := st.profiles.Seeker(subjectID)
		if !ok {
			return Result{Reason: ReasonUnknownSubject}, nil
		}
		subjectText = s.Description()
		shortlist = e.prefilter.ForSeeker(st.profiles, s, st.ledger.Decided(interaction.SideSeeker, subjectID))
	case match.ProviderToSeekers:
		p, ok := st.profiles.Provider(subjectID)
		if !ok {
			return Result{Reason: ReasonUnknownSubject}, nil
		}
		subjectText = p.Description()
		shortlist = e.prefilter.ForProvider(st.profiles, p, st.ledger.Decided(interaction.SideProvider, subjectID))
	default:
		return Result{}, fmt.Errorf("unknown direction %q", dir)
	}

	metrics.ShortlistSize.WithLabelValues(string(dir)).Observe(float64(len(shortlist)))
	if len(shortlist) == 0 {
		return Result{Reason: ReasonNoCandidates}, nil
	}

	texts := make([]string, 0, len(shortlist)+1)
	texts = append(texts, subjectText)
	for _, c := range shortlist {
		texts = append(texts, c.Description)
	}
	vecs, err := e.enc.EmbedBatch(ctx, texts)
	if err != nil {
		return timeoutOr(ctx, fmt.Errorf("encode shortlist: %w", err))
	}
	if len(vecs) != len(texts) {
		return Result{}, fmt.Errorf("%w: encoder returned %d vectors for %d texts",
			domain.ErrEmbeddingProviderError, len(vecs), len(texts))
	}

	rows := make([]match.Features, len(shortlist))
	for i, c := range shortlist {
		rows[i] = match.NewFeatures(c.Seeker, c.Provider, match.Cosine(vecs[0], vecs[i+1]))
	}

	probs, err := st.scorers[dir].Score(ctx, rows)
	if err != nil {
		return timeoutOr(ctx, fmt.Errorf("score shortlist: %w", err))
	}
	if err := match.CheckScores(rows, probs); err != nil {
		return Result{}, err
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Result{Reason: ReasonTimeout}, nil
	}

	var picks []Pick
	if req.hasSeed {
		picks = e.sampler.SampleSeeded(probs, k, req.seed)
	} else {
		picks = e.sampler.Sample(probs, k)
	}

	items := make([]match.Recommendation, len(picks))
	for i, p := range picks {
		c := shortlist[p.Index]
		items[i] = match.Recommendation{ID: c.ID, Name: c.Name, Probability: p.Probability}
	}
	return Result{Items: items}, nil
}

// timeoutOr turns a deadline expiry into an empty timeout result and passes other errors through.
func timeoutOr(ctx context.Context, err error) (Result, error) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Result{Reason: ReasonTimeout}, nil
	}
	return Result{}, err
}
