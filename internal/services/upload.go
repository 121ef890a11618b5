package services

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"demand-studio/internal/client"
	apperrors "demand-studio/internal/errors"
	"demand-studio/internal/models"
)

type DatasetUploader interface {
	Upload(ctx context.Context, name string, content io.Reader) (models.Dataset, error)
}

type UploadCoordinator struct {
	backend DatasetUploader
	logger  *slog.Logger
}

func NewUploadCoordinator(backend DatasetUploader, logger *slog.Logger) *UploadCoordinator {
	return &UploadCoordinator{
		backend: backend,
		logger:  logger,
	}
}

// Upload sends the selected file to the backend. Failures are returned as an
// upload AppError carrying the backend's detail, "Upload failed" when the
// backend gave none, or "Unexpected error" when no usable response arrived.
func (u *UploadCoordinator) Upload(ctx context.Context, file models.FileUpload) (models.Dataset, error) {
	if !file.Selected() {
		return models.Dataset{}, apperrors.Validation("no file selected")
	}

	ds, err := u.backend.Upload(ctx, file.Name, file.Content)
	if err != nil {
		var se *client.StatusError
		if errors.As(err, &se) {
			return models.Dataset{}, apperrors.Upload(se.Detail, err)
		}
		return models.Dataset{}, apperrors.Upload(apperrors.MsgUnexpected, err)
	}

	u.logger.Info("dataset uploaded",
		"dataset_id", ds.ID,
		"rows", ds.Rows,
		"file", file.Name,
	)
	return ds, nil
}
