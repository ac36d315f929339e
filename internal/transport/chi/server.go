package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/9Skies9/InvestLink/internal/domain"
	"github.com/9Skies9/InvestLink/internal/domain/interaction"
	"github.com/9Skies9/InvestLink/internal/domain/match"
	domusage "github.com/9Skies9/InvestLink/internal/domain/usage"
	"github.com/9Skies9/InvestLink/internal/metrics"
	healthuc "github.com/9Skies9/InvestLink/internal/usecase/health"
	"github.com/9Skies9/InvestLink/internal/usecase/recommend"
)

// maxBodyBytes bounds interaction request bodies.
const maxBodyBytes = 64 << 10

// Recommender is the engine surface the HTTP API needs.
type Recommender interface {
	RecommendForSeeker(ctx context.Context, seekerID int64, k int, opts ...recommend.RequestOption) (recommend.Result, error)
	RecommendForProvider(ctx context.Context, providerID int64, k int, opts ...recommend.RequestOption) (recommend.Result, error)
	RecordInteraction(side interaction.Side, subject, object int64, liked bool) error
	UpdateInteraction(side interaction.Side, subject, object int64, status interaction.Status) error
	Reload(ctx context.Context) error
	Stats() recommend.Stats
}

// HealthReporter runs dependency checks.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// UsageReporter reports embedding token spend.
type UsageReporter interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the recommendation API.
type Server struct {
	engine        Recommender
	health        HealthReporter
	usage         UsageReporter
	logger        *zap.Logger
	apiKeys       []string
	corsOrigins   []string
	rateLimit     int
	rateWindow    time.Duration
	errorHandlers []errorHandler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAPIKeys turns on bearer authentication.
func WithAPIKeys(keys []string) ServerOption {
	return func(s *Server) { s.apiKeys = keys }
}

// WithCORS allows browser calls from the given origins.
func WithCORS(origins []string) ServerOption {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithRateLimit caps /v1 requests per client IP. Zero disables the limit.
func WithRateLimit(requests int, window time.Duration) ServerOption {
	return func(s *Server) {
		s.rateLimit = requests
		s.rateWindow = window
	}
}

// WithUsage serves GET /v1/admin/usage.
func WithUsage(u UsageReporter) ServerOption {
	return func(s *Server) { s.usage = u }
}

// NewServer creates an HTTP API server.
func NewServer(engine Recommender, health HealthReporter, logger *zap.Logger, opts ...ServerOption) *Server {
	s := &Server{
		engine: engine,
		health: health,
		logger: logger,
	}
	for _, o := range opts {
		o(s)
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidInteraction, http.StatusBadRequest, CodeInvalidInteraction),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded, http.StatusTooManyRequests, CodeQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeProviderError),
		sentinelHandler(domain.ErrEngineNotReady, http.StatusServiceUnavailable, CodeEngineNotReady),
		sentinelHandler(domain.ErrSnapshotUnavailable, http.StatusServiceUnavailable, CodeSnapshotUnavailable),
	}
	return s
}

// Router builds the chi router with the full middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			ExposedHeaders: []string{"X-Request-ID", "X-Embedding-Tokens"},
			MaxAge:         300,
		}))
	}
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r chi.Router) {
		if s.rateLimit > 0 {
			r.Use(httprate.Limit(s.rateLimit, s.rateWindow,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded")
				}),
			))
		}
		r.Get("/seekers/{id}/recommendations", s.recommendHandler(match.SeekerToProviders))
		r.Get("/providers/{id}/recommendations", s.recommendHandler(match.ProviderToSeekers))
		r.Post("/interactions", s.RecordInteraction)
		r.Put("/interactions", s.UpdateInteraction)
		r.Post("/admin/reload", s.Reload)
		r.Get("/admin/stats", s.Stats)
		if s.usage != nil {
			r.Get("/admin/usage", s.GetUsage)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// recommendHandler handles GET /v1/{seekers|providers}/{id}/recommendations.
func (s *Server) recommendHandler(dir match.Direction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "id must be a positive integer")
			return
		}

		q := r.URL.Query()
		k := 0
		if raw := q.Get("k"); raw != "" {
			if k, err = strconv.Atoi(raw); err != nil || k <= 0 {
				writeError(w, http.StatusBadRequest, CodeBadRequest, "k must be a positive integer")
				return
			}
		}
		var opts []recommend.RequestOption
		if raw := q.Get("seed"); raw != "" {
			seed, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, CodeBadRequest, "seed must be a non-negative integer")
				return
			}
			opts = append(opts, recommend.WithSeed(seed))
		}

		ctx, usage := domain.ContextWithTokenUsage(r.Context())
		var res recommend.Result
		if dir == match.SeekerToProviders {
			res, err = s.engine.RecommendForSeeker(ctx, id, k, opts...)
		} else {
			res, err = s.engine.RecommendForProvider(ctx, id, k, opts...)
		}
		setEmbeddingHeaders(w, usage)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		items := res.Items
		if items == nil {
			items = []match.Recommendation{}
		}
		writeJSON(w, http.StatusOK, RecommendationResponse{
			Direction: dir,
			SubjectID: id,
			Items:     items,
			Reason:    res.Reason,
		})
	}
}

// RecordInteraction handles POST /v1/interactions.
func (s *Server) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req RecordInteractionRequest
	if !s.decode(w, r, &req) {
		return
	}
	side, err := interaction.ParseSide(req.Side)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if err := s.engine.RecordInteraction(side, req.SubjectID, req.ObjectID, *req.Liked); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateInteraction handles PUT /v1/interactions.
func (s *Server) UpdateInteraction(w http.ResponseWriter, r *http.Request) {
	var req UpdateInteractionRequest
	if !s.decode(w, r, &req) {
		return
	}
	side, err := interaction.ParseSide(req.Side)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	status, err := interaction.ParseStatus(req.Status)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if err := s.engine.UpdateInteraction(side, req.SubjectID, req.ObjectID, status); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reload handles POST /v1/admin/reload.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	if err := s.engine.Reload(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	st := s.engine.Stats()
	writeJSON(w, http.StatusOK, ReloadResponse{
		Providers: st.Providers,
		Seekers:   st.Seekers,
		LoadedAt:  st.LoadedAt,
	})
}

// Stats handles GET /v1/admin/stats.
func (s *Server) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Stats())
}

// GetUsage handles GET /v1/admin/usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period, ok := domusage.ParsePeriod(r.URL.Query().Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "period must be day or month")
		return
	}
	writeJSON(w, http.StatusOK, s.usage.GetReport(r.Context(), period))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Ready:  report.Ready,
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decode reads a JSON body and runs struct validation.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.logger.Debug("invalid request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid request body")
		return false
	}
	if msg := validateRequest(v); msg != "" {
		writeError(w, http.StatusBadRequest, CodeInvalidInteraction, msg)
		return false
	}
	return true
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.TokenUsage) {
	if usage != nil && usage.Calls > 0 {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.Tokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrInvalidInteraction,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrEngineNotReady,
		domain.ErrSnapshotUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
