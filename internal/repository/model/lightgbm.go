package model

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"

	"github.com/dmitryikh/leaves"
	"go.uber.org/zap"

	"github.com/9Skies9/InvestLink/internal/domain/match"
)

// LightGBM scores feature rows with a trained text-format LightGBM model.
type LightGBM struct {
	ensemble *leaves.Ensemble
	threads  int
}

// Open loads a model. The sigmoid transformation is applied so outputs are probabilities.
func Open(path string) (*LightGBM, error) {
	ensemble, err := leaves.LGEnsembleFromFile(path, true)
	if err != nil {
		return nil, fmt.Errorf("load lightgbm model %s: %w", path, err)
	}
	if n := ensemble.NFeatures(); n != match.NumFeatures {
		return nil, fmt.Errorf("lightgbm model %s: expects %d features, have %d", path, n, match.NumFeatures)
	}
	if g := ensemble.NOutputGroups(); g != 1 {
		return nil, fmt.Errorf("lightgbm model %s: expects binary model, got %d output groups", path, g)
	}
	return &LightGBM{ensemble: ensemble, threads: max(1, runtime.NumCPU()/2)}, nil
}

// Score predicts one probability per row in a single dense batch.
func (m *LightGBM) Score(ctx context.Context, rows []match.Features) ([]float64, error) {
	if len(rows) == 0 {
		return []float64{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("lightgbm score: %w", err)
	}

	vals := make([]float64, 0, len(rows)*match.NumFeatures)
	for _, r := range rows {
		vals = append(vals, r[:]...)
	}
	preds := make([]float64, len(rows))
	if err := m.ensemble.PredictDense(vals, len(rows), match.NumFeatures, preds, 0, m.threads); err != nil {
		return nil, fmt.Errorf("lightgbm predict: %w", err)
	}
	return preds, nil
}

// Loader resolves the model file for each direction.
type Loader struct {
	paths  map[match.Direction]string
	logger *zap.Logger
}

// NewLoader maps seeker-side and provider-side model paths. Empty paths disable the model.
func NewLoader(seekerPath, providerPath string, logger *zap.Logger) *Loader {
	return &Loader{
		paths: map[match.Direction]string{
			match.SeekerToProviders: seekerPath,
			match.ProviderToSeekers: providerPath,
		},
		logger: logger,
	}
}

// Load returns (nil, nil) when no model is configured or the file does not exist.
func (l *Loader) Load(_ context.Context, dir match.Direction) (match.Scorer, error) {
	path := l.paths[dir]
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger.Info("Model file absent", zap.String("direction", string(dir)), zap.String("path", path))
			return nil, nil
		}
		return nil, fmt.Errorf("stat model %s: %w", path, err)
	}

	m, err := Open(path)
	if err != nil {
		return nil, err
	}
	l.logger.Info("Model loaded",
		zap.String("direction", string(dir)),
		zap.String("path", path),
		zap.Int("trees", m.ensemble.NEstimators()),
	)
	return m, nil
}
