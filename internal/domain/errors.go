package domain

import "errors"

var (
	// ErrNotFound signals a missing profile.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInteraction signals a malformed interaction event.
	ErrInvalidInteraction = errors.New("invalid interaction")
	// ErrEngineNotReady signals that the snapshot has not been loaded yet.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrSnapshotUnavailable signals that the profile snapshot could not be read.
	ErrSnapshotUnavailable = errors.New("snapshot unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingQuotaExceeded signals that the token quota for the provider is spent.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingDimMismatch signals vectors of different length in one batch.
	ErrEmbeddingDimMismatch = errors.New("embedding dimension mismatch")
)
