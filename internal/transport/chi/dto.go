package chi

import (
	"time"

	"github.com/9Skies9/InvestLink/internal/domain/match"
	"github.com/9Skies9/InvestLink/internal/usecase/recommend"
)

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeUnauthorized        ErrorCode = "unauthorized"
	CodeNotFound            ErrorCode = "not_found"
	CodeInvalidInteraction  ErrorCode = "invalid_interaction"
	CodeQuotaExceeded       ErrorCode = "embedding_quota_exceeded"
	CodeProviderError       ErrorCode = "embedding_provider_error"
	CodeEngineNotReady      ErrorCode = "engine_not_ready"
	CodeSnapshotUnavailable ErrorCode = "snapshot_unavailable"
	CodeRateLimited         ErrorCode = "rate_limited"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RecommendationResponse lists ranked counterparties.
type RecommendationResponse struct {
	Direction match.Direction        `json:"direction"`
	SubjectID int64                  `json:"subject_id"`
	Items     []match.Recommendation `json:"items"`
	Reason    recommend.Reason       `json:"reason,omitempty"`
}

// RecordInteractionRequest is a swipe.
type RecordInteractionRequest struct {
	Side      string `json:"side" validate:"required,oneof=seeker provider"`
	SubjectID int64  `json:"subject_id" validate:"gt=0"`
	ObjectID  int64  `json:"object_id" validate:"gt=0"`
	Liked     *bool  `json:"liked" validate:"required"`
}

// UpdateInteractionRequest changes the status of an earlier decision.
type UpdateInteractionRequest struct {
	Side      string `json:"side" validate:"required,oneof=seeker provider"`
	SubjectID int64  `json:"subject_id" validate:"gt=0"`
	ObjectID  int64  `json:"object_id" validate:"gt=0"`
	Status    string `json:"status" validate:"required,oneof=accept reject revert"`
}

// ReloadResponse describes the state after a reload.
type ReloadResponse struct {
	Providers int       `json:"providers"`
	Seekers   int       `json:"seekers"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"`
}
