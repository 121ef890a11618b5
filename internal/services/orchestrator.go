package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"demand-studio/internal/client"
	apperrors "demand-studio/internal/errors"
	"demand-studio/internal/models"
	"demand-studio/internal/observability"
)

type ForecastFetcher interface {
	Forecast(ctx context.Context, req models.ForecastRequest) (*models.ForecastResult, error)
}

// ForecastOrchestrator runs the ARIMA and XGBoost forecasts for one dataset
// side by side.
//
// Join policy: Run waits for both calls to settle. A failed call never
// cancels its sibling. When any call fails, Run reports the error of the
// first failed variant in models.Variants order (ARIMA before XGBoost) and
// discards every result of that run, including a sibling that succeeded.
type ForecastOrchestrator struct {
	backend ForecastFetcher
	logger  *slog.Logger
}

func NewForecastOrchestrator(backend ForecastFetcher, logger *slog.Logger) *ForecastOrchestrator {
	return &ForecastOrchestrator{
		backend: backend,
		logger:  logger,
	}
}

type forecastOutcome struct {
	result *models.ForecastResult
	err    error
}

func (o *ForecastOrchestrator) Run(ctx context.Context, datasetID string, horizon int) (models.ForecastPair, error) {
	var pair models.ForecastPair

	if datasetID == "" {
		return pair, apperrors.Validation("dataset id is required")
	}
	if err := models.ValidateHorizon(horizon); err != nil {
		return pair, apperrors.ValidationWrap(err, err.Error())
	}

	ctx, span := observability.Tracer().Start(ctx, "forecast.orchestrate", trace.WithAttributes(
		attribute.String("dataset.id", datasetID),
		attribute.Int("forecast.horizon", horizon),
	))
	defer span.End()

	start := time.Now()
	outcomes := make([]forecastOutcome, len(models.Variants))

	var g errgroup.Group
	for i, variant := range models.Variants {
		g.Go(func() error {
			res, err := o.fetch(ctx, models.ForecastRequest{
				DatasetID: datasetID,
				Model:     variant,
				Horizon:   horizon,
			})
			outcomes[i] = forecastOutcome{result: res, err: err}
			return err
		})
	}
	// Wait reports whichever failure finished first; precedence is decided
	// below by variant order instead.
	g.Wait()

	for i, variant := range models.Variants {
		if err := outcomes[i].err; err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperrors.UserMessage(err))
			o.logger.Warn("forecast run failed",
				"dataset_id", datasetID,
				"horizon", horizon,
				"model", variant,
				"error", err,
			)
			return models.ForecastPair{}, err
		}
		pair.Set(variant, outcomes[i].result)
	}

	o.logger.Info("forecast run completed",
		"dataset_id", datasetID,
		"horizon", horizon,
		"duration", time.Since(start),
	)
	return pair, nil
}

func (o *ForecastOrchestrator) fetch(ctx context.Context, req models.ForecastRequest) (*models.ForecastResult, error) {
	ctx, span := observability.Tracer().Start(ctx, "forecast.fetch", trace.WithAttributes(
		attribute.String("forecast.model", string(req.Model)),
	))
	defer span.End()

	res, err := o.backend.Forecast(ctx, req)
	if err == nil {
		return res, nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var se *client.StatusError
	if errors.As(err, &se) {
		return nil, apperrors.Forecast(req.Model, se.Detail, err)
	}
	return nil, apperrors.Forecast(req.Model, apperrors.MsgUnexpected, err)
}
