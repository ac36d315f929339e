// Package app wires configuration into a ready-to-use recommendation engine.
// Both the API server and the CLI build on it.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/9Skies9/InvestLink/internal/config"
	"github.com/9Skies9/InvestLink/internal/db"
	dbRedis "github.com/9Skies9/InvestLink/internal/db/redis"
	"github.com/9Skies9/InvestLink/internal/domain"
	"github.com/9Skies9/InvestLink/internal/metrics"
	"github.com/9Skies9/InvestLink/internal/repository/embcache"
	"github.com/9Skies9/InvestLink/internal/repository/model"
	quotarepo "github.com/9Skies9/InvestLink/internal/repository/quota"
	"github.com/9Skies9/InvestLink/internal/repository/snapshot"
	"github.com/9Skies9/InvestLink/internal/transport/hashing"
	openaiEmb "github.com/9Skies9/InvestLink/internal/transport/openai"
	embeddinguc "github.com/9Skies9/InvestLink/internal/usecase/embedding"
	healthuc "github.com/9Skies9/InvestLink/internal/usecase/health"
	"github.com/9Skies9/InvestLink/internal/usecase/recommend"
	usageuc "github.com/9Skies9/InvestLink/internal/usecase/usage"
)

// App holds the assembled services.
type App struct {
	Engine  *recommend.Engine
	Health  *healthuc.Service
	Encoder *embeddinguc.TextEncoder
	Quota   *embeddinguc.Quota
	Usage   *usageuc.Service

	closers []func()
}

// Build assembles the engine and its dependencies. Close releases them.
func Build(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}

	var store db.Store
	if cfg.Database.Enabled() {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Username: cfg.Database.Username,
			Password: cfg.Database.Password,
			DB:       cfg.Database.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create database store: %w", err)
		}
		a.closers = append(a.closers, s.Close)
		if err := s.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			a.Close()
			return nil, fmt.Errorf("database not ready: %w", err)
		}
		logger.Info("Connected to database", zap.Strings("addrs", cfg.Database.Addrs))
		store = s
	}

	// Pass a nil interface, not a typed nil pointer, when there is no quota.
	var quota embeddinguc.QuotaChecker
	if q := cfg.Embedding.Quota; q.DailyTokens > 0 || q.MonthlyTokens > 0 {
		a.Quota = embeddinguc.NewQuota(
			cfg.Embedding.Provider, q.DailyTokens, q.MonthlyTokens, embeddinguc.QuotaAction(q.Action), logger,
		)
		if store != nil {
			a.Quota.WithStore(ctx, quotarepo.New(store, 0, 0))
		}
		quota = a.Quota
	}

	var quotaReader usageuc.QuotaReader
	if a.Quota != nil {
		quotaReader = a.Quota
	}
	a.Usage = usageuc.New(quotaReader, cfg.Embedding.Provider)

	chain, dims := buildEmbedder(cfg, store, quota, logger)
	a.Encoder = embeddinguc.NewTextEncoder(chain, dims)
	logger.Info("Embedder created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", dims),
		zap.Bool("cached", store != nil && cfg.Embedding.Provider == config.ProviderOpenAI),
	)

	src, snapshotProbe, err := buildSource(cfg.Snapshot, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := src.(interface{ Close() }); ok {
		a.closers = append(a.closers, c.Close)
	}

	models := model.NewLoader(cfg.Model.SeekerModelPath, cfg.Model.ProviderModelPath, logger)

	r := cfg.Recommend
	a.Engine = recommend.New(src, a.Encoder, models, recommend.Config{
		ShortlistSize:       r.ShortlistSize,
		DefaultK:            r.DefaultK,
		MaxK:                r.MaxK,
		ExcludedSeekerIDs:   r.ExcludedSeekerIDs,
		ExcludedProviderIDs: r.ExcludedProviderIDs,
		Seed:                r.Seed,
		MaxConcurrent:       r.MaxConcurrent,
		RequestTimeout:      time.Duration(r.RequestTimeoutMs) * time.Millisecond,
	}, logger)

	var dbProbe healthuc.DBPinger
	if store != nil {
		dbProbe = store
	}
	opts := []healthuc.Option{healthuc.WithEngine(a.Engine)}
	if snapshotProbe != nil {
		opts = append(opts, healthuc.WithSnapshot(snapshotProbe))
	}
	a.Health = healthuc.New(dbProbe, a.Encoder, opts...)

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// buildEmbedder assembles the decorator chain: provider -> breaker -> cache -> instrumented -> instruction.
// The hashing provider is local and deterministic, so it skips the breaker and the cache.
func buildEmbedder(
	cfg config.Config, store db.Store, quota embeddinguc.QuotaChecker, logger *zap.Logger,
) (domain.Embedder, int) {
	ec := cfg.Embedding

	var embedder domain.Embedder
	dims := ec.Dimensions
	switch ec.Provider {
	case config.ProviderOpenAI:
		embedder = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     logger,
		})
		embedder = embeddinguc.NewBreakerEmbedder(embedder, ec.Provider, embeddinguc.BreakerSettings{
			MaxRequests:  ec.Breaker.MaxRequests,
			Interval:     time.Duration(ec.Breaker.IntervalSec) * time.Second,
			Timeout:      time.Duration(ec.Breaker.TimeoutSec) * time.Second,
			MinRequests:  ec.Breaker.MinRequests,
			FailureRatio: ec.Breaker.FailureRatio,
		}, logger)
		if store != nil {
			embedder = embcache.New(embedder, store, metrics.EmbeddingCacheTotal, logger,
				embcache.WithNamespace(ec.Model),
				embcache.WithTTL(time.Duration(cfg.Database.CacheTTLHours)*time.Hour),
			)
		}
	default:
		h := hashing.NewEmbedder(ec.Dimensions)
		dims = h.Dimensions()
		embedder = h
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, ec.Provider, ec.Model, quota, logger).
		WithMaxBatch(ec.MaxBatchSize)

	// Outermost, so cache keys include the instruction.
	if ec.Instruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, ec.Instruction)
	}
	return embedder, dims
}

// buildSource picks the profile source. The second return value is a health check, nil for files.
func buildSource(cfg config.SnapshotConfig, logger *zap.Logger) (recommend.Source, healthuc.DBPinger, error) {
	switch cfg.Driver {
	case config.SnapshotPostgres, config.SnapshotMySQL:
		gdb, err := snapshot.OpenSQL(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open snapshot database: %w", err)
		}
		src := snapshot.NewSQLSource(gdb, logger)
		return src, src, nil
	default:
		return snapshot.NewCSVSource(cfg.Dir, logger), nil, nil
	}
}
