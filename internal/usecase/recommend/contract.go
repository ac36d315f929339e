package recommend

import (
	"context"

	"github.com/9Skies9/InvestLink/internal/domain/match"
	"github.com/9Skies9/InvestLink/internal/domain/snapshot"
)

// Source reads profiles and past decisions from the system of record.
type Source interface {
	Load(ctx context.Context) (snapshot.Snapshot, error)
}

// Encoder turns descriptions into L2-normalized vectors, one per input text.
type Encoder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelLoader opens the trained scorer for a direction.
// It returns (nil, nil) when no artifact is configured or the file is absent.
type ModelLoader interface {
	Load(ctx context.Context, dir match.Direction) (match.Scorer, error)
}
