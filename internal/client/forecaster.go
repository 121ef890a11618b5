package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"demand-studio/internal/models"
	"demand-studio/internal/observability"
)

const (
	uploadPath   = "/api/upload/upload"
	forecastPath = "/api/forecast/forecast"
	reorderPath  = "/api/reorder/reorder"
	simulatePath = "/api/simulate/simulate"
	healthPath   = "/"

	maxErrorBody    = 64 << 10
	defaultFileName = "dataset.csv"
)

// ErrMalformedResponse is returned when a 2xx response body cannot be decoded
// or breaks the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is a non-2xx answer from the forecasting API. Detail holds the
// body's "detail" field when it is a non-empty string.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("forecast-api %s returned %d: %s", e.Endpoint, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("forecast-api %s returned %d", e.Endpoint, e.StatusCode)
}

// Client calls the forecasting API over HTTP. It sets no request timeout of
// its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Upload streams the file as multipart field "file" to the upload endpoint.
func (c *Client) Upload(ctx context.Context, name string, content io.Reader) (models.Dataset, error) {
	var out models.Dataset
	if name == "" {
		name = defaultFileName
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, content); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadPath, pr)
	if err != nil {
		pr.Close()
		return out, fmt.Errorf("forecast-api %s: %w", uploadPath, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do(req, uploadPath)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if err := decodeJSON(resp.Body, uploadPath, &out); err != nil {
		return out, err
	}
	if out.ID == "" || out.Rows < 0 {
		observability.BackendRequests.WithLabelValues(uploadPath, "decode").Inc()
		return out, fmt.Errorf("forecast-api %s: %w: missing dataset id", uploadPath, ErrMalformedResponse)
	}
	return out, nil
}

// Forecast requests one model's forecast. The returned result always carries
// the requested model variant.
func (c *Client) Forecast(ctx context.Context, fr models.ForecastRequest) (*models.ForecastResult, error) {
	resp, err := c.postJSON(ctx, forecastPath, fr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out models.ForecastResult
	if err := decodeJSON(resp.Body, forecastPath, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		observability.BackendRequests.WithLabelValues(forecastPath, "decode").Inc()
		return nil, fmt.Errorf("forecast-api %s: %w: %v", forecastPath, ErrMalformedResponse, err)
	}
	if out.Model != fr.Model {
		if out.Model != "" {
			c.logger.Warn("forecast response model differs from request",
				"requested", fr.Model,
				"returned", out.Model,
			)
		}
		out.Model = fr.Model
	}
	return &out, nil
}

func (c *Client) Reorder(ctx context.Context, rr models.ReorderRequest) (*models.ReorderRecommendation, error) {
	resp, err := c.postJSON(ctx, reorderPath, rr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out models.ReorderRecommendation
	if err := decodeJSON(resp.Body, reorderPath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Simulate(ctx context.Context, sr models.SimulationRequest) (*models.SimulationOutcome, error) {
	resp, err := c.postJSON(ctx, simulatePath, sr)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out models.SimulationOutcome
	if err := decodeJSON(resp.Body, simulatePath, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping checks that the API root answers with a 2xx status.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req, healthPath)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("forecast-api %s: encode: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("forecast-api %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path)
}

// do sends the request and turns non-2xx answers into *StatusError. The
// caller owns the body of a returned response.
func (c *Client) do(req *http.Request, path string) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observability.BackendDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

	if err != nil {
		observability.BackendRequests.WithLabelValues(path, "transport").Inc()
		c.logger.Warn("forecast-api call failed", "endpoint", path, "error", err)
		return nil, fmt.Errorf("forecast-api %s: %w", path, err)
	}

	if err := checkResp(resp, path); err != nil {
		resp.Body.Close()
		observability.BackendRequests.WithLabelValues(path, "status").Inc()
		c.logger.Warn("forecast-api returned error status",
			"endpoint", path,
			"status", resp.StatusCode,
			"error", err,
		)
		return nil, err
	}

	observability.BackendRequests.WithLabelValues(path, "ok").Inc()
	return resp, nil
}

func checkResp(resp *http.Response, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Endpoint:   path,
		StatusCode: resp.StatusCode,
		Detail:     extractDetail(body),
	}
}

// extractDetail returns the "detail" field when the body is a JSON object
// whose detail is a non-empty string. Anything else yields "".
func extractDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(payload.Detail, &detail); err != nil {
		return ""
	}
	return detail
}

func decodeJSON(r io.Reader, path string, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		observability.BackendRequests.WithLabelValues(path, "decode").Inc()
		return fmt.Errorf("forecast-api %s: %w: %v", path, ErrMalformedResponse, err)
	}
	return nil
}
