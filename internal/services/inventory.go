package services

import (
	"context"
	"errors"
	"log/slog"

	"demand-studio/internal/client"
	apperrors "demand-studio/internal/errors"
	"demand-studio/internal/models"
)

type InventoryBackend interface {
	Reorder(ctx context.Context, req models.ReorderRequest) (*models.ReorderRecommendation, error)
	Simulate(ctx context.Context, req models.SimulationRequest) (*models.SimulationOutcome, error)
}

// InventoryAdvisor asks the backend for reorder points and stockout risk on
// the uploaded dataset.
type InventoryAdvisor struct {
	backend InventoryBackend
	logger  *slog.Logger
}

func NewInventoryAdvisor(backend InventoryBackend, logger *slog.Logger) *InventoryAdvisor {
	return &InventoryAdvisor{
		backend: backend,
		logger:  logger,
	}
}

func (a *InventoryAdvisor) Reorder(ctx context.Context, req models.ReorderRequest) (*models.ReorderRecommendation, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.ValidationWrap(err, err.Error())
	}
	rec, err := a.backend.Reorder(ctx, req)
	if err != nil {
		return nil, advisoryError(err, apperrors.MsgReorderFailed)
	}
	a.logger.Info("reorder recommendation ready",
		"dataset_id", req.DatasetID,
		"reorder_point", rec.ReorderPoint,
	)
	return rec, nil
}

func (a *InventoryAdvisor) Simulate(ctx context.Context, req models.SimulationRequest) (*models.SimulationOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.ValidationWrap(err, err.Error())
	}
	out, err := a.backend.Simulate(ctx, req)
	if err != nil {
		return nil, advisoryError(err, apperrors.MsgSimulationFailed)
	}
	a.logger.Info("stockout simulation ready",
		"dataset_id", req.DatasetID,
		"risk_level", out.RiskLevel,
	)
	return out, nil
}

func advisoryError(err error, fallback string) error {
	var se *client.StatusError
	if errors.As(err, &se) {
		return apperrors.Advisory(se.Detail, fallback, err)
	}
	return apperrors.Advisory(apperrors.MsgUnexpected, fallback, err)
}
