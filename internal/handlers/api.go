package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"demand-studio/internal/errors"
	"demand-studio/internal/models"
	"demand-studio/internal/observability"
	"demand-studio/internal/services"
	"demand-studio/internal/session"
)

// Pinger reports whether the forecasting API answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type APIHandlers struct {
	sessions      *session.Store
	backend       Pinger
	healthTimeout time.Duration
	version       string
	logger        *slog.Logger
}

func NewAPIHandlers(sessions *session.Store, backend Pinger, healthTimeout time.Duration, version string, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		sessions:      sessions,
		backend:       backend,
		healthTimeout: healthTimeout,
		version:       version,
		logger:        logger,
	}
}

func (h *APIHandlers) HandleState(w http.ResponseWriter, r *http.Request) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		errors.WriteError(w, h.logger, errors.Internal("session required"), observability.GetRequestID(r.Context()))
		return
	}

	headers := map[string]string{
		"Cache-Control": "no-store",
	}

	errors.WriteSuccessWithHeaders(w, s.Snapshot(), headers)
}

type seriesResponse struct {
	Model  models.ModelVariant `json:"model"`
	Points []models.ChartPoint `json:"points"`
}

// HandleSeries returns the chart points for one model. A model with no
// result yields an empty list.
func (h *APIHandlers) HandleSeries(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	model, ok := models.ParseModelVariant(r.PathValue("model"))
	if !ok {
		errors.WriteError(w, h.logger, errors.NotFound("unknown model"), requestID)
		return
	}

	s, ok := session.FromContext(r.Context())
	if !ok {
		errors.WriteError(w, h.logger, errors.Internal("session required"), requestID)
		return
	}

	headers := map[string]string{
		"Cache-Control": "no-store",
	}

	errors.WriteSuccessWithHeaders(w, seriesResponse{
		Model:  model,
		Points: services.ToChartPoints(s.Snapshot().Result(model)),
	}, headers)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.healthTimeout)
	defer cancel()

	status, backend := "healthy", "up"
	if err := h.backend.Ping(ctx); err != nil {
		h.logger.Warn("forecast backend health check failed", "error", err)
		status, backend = "degraded", "down"
	}

	healthData := map[string]string{
		"status":    status,
		"backend":   backend,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.sessions.Stats()

	errors.WriteSuccess(w, stats)
}
