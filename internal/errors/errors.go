package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"demand-studio/internal/models"
)

type ErrorCode string

const (
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
	CodeValidation     ErrorCode = "VALIDATION_ERROR"
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeRateLimit      ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
	CodeUpload         ErrorCode = "UPLOAD_FAILED"
	CodeForecast       ErrorCode = "FORECAST_FAILED"
	CodeAdvisory       ErrorCode = "ADVISORY_FAILED"
	CodeUnexpected     ErrorCode = "UNEXPECTED_ERROR"
)

// Messages shown in the error banner when the backend gives no detail.
const (
	MsgUploadFailed     = "Upload failed"
	MsgUnexpected       = "Unexpected error"
	MsgReorderFailed    = "Reorder recommendation failed"
	MsgSimulationFailed = "Simulation failed"
)

type AppError struct {
	Code       ErrorCode           `json:"code"`
	Message    string              `json:"message"`
	Details    string              `json:"details,omitempty"`
	Model      models.ModelVariant `json:"model,omitempty"`
	StatusCode int                 `json:"-"`
	Cause      error               `json:"-"`
	Timestamp  time.Time           `json:"timestamp"`
	RequestID  string              `json:"request_id,omitempty"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCode(code),
		Timestamp:  time.Now().UTC(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: getStatusCode(code),
		Cause:      err,
		Timestamp:  time.Now().UTC(),
	}
}

func Internal(message string) *AppError {
	return New(CodeInternal, message)
}

func Validation(message string) *AppError {
	return New(CodeValidation, message)
}

func ValidationWrap(err error, message string) *AppError {
	return Wrap(err, CodeValidation, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func BadRequest(message string) *AppError {
	return New(CodeBadRequest, message)
}

func RateLimit(message string) *AppError {
	return New(CodeRateLimit, message)
}

func ServiceUnavailable(message string) *AppError {
	return New(CodeServiceUnavail, message)
}

// Upload reports a failed dataset upload. An empty message falls back to
// MsgUploadFailed.
func Upload(message string, cause error) *AppError {
	if message == "" {
		message = MsgUploadFailed
	}
	return Wrap(cause, CodeUpload, message)
}

// Forecast reports a failed forecast call for one model variant. An empty
// message falls back to "<Label> forecast failed".
func Forecast(model models.ModelVariant, message string, cause error) *AppError {
	if message == "" {
		message = ForecastFallback(model)
	}
	e := Wrap(cause, CodeForecast, message)
	e.Model = model
	return e
}

func ForecastFallback(model models.ModelVariant) string {
	return model.Label() + " forecast failed"
}

func Advisory(message, fallback string, cause error) *AppError {
	if message == "" {
		message = fallback
	}
	return Wrap(cause, CodeAdvisory, message)
}

func Unexpected(cause error) *AppError {
	return Wrap(cause, CodeUnexpected, MsgUnexpected)
}

// UserMessage converts any error into the single string shown in the error
// banner. Errors that are not an AppError become MsgUnexpected.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return MsgUnexpected
}

func getStatusCode(code ErrorCode) int {
	switch code {
	case CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeRateLimit:
		return http.StatusTooManyRequests
	case CodeServiceUnavail:
		return http.StatusServiceUnavailable
	case CodeUpload, CodeForecast, CodeAdvisory:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type ErrorResponse struct {
	Error   *AppError `json:"error"`
	Success bool      `json:"success"`
}

func WriteError(w http.ResponseWriter, logger *slog.Logger, err error, requestID string) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		appErr = Internal("An unexpected error occurred")
		appErr.Cause = err
	}

	appErr.RequestID = requestID

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	response := ErrorResponse{
		Error:   appErr,
		Success: false,
	}

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		logger.Error("failed to encode error response",
			"encode_error", encodeErr,
			"original_error", err,
			"request_id", requestID,
		)
		return
	}

	logLevel := slog.LevelError
	if appErr.StatusCode < 500 {
		logLevel = slog.LevelWarn
	}

	logger.Log(context.TODO(), logLevel, "request failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"status_code", appErr.StatusCode,
		"request_id", requestID,
		"cause", appErr.Cause,
	)
}

type SuccessResponse struct {
	Data    any  `json:"data"`
	Success bool `json:"success"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := SuccessResponse{
		Data:    data,
		Success: true,
	}

	json.NewEncoder(w).Encode(response)
}

func WriteSuccessWithHeaders(w http.ResponseWriter, data any, headers map[string]string) {
	for key, value := range headers {
		w.Header().Set(key, value)
	}
	WriteSuccess(w, data)
}
