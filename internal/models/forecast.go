package models

import (
	"fmt"
	"io"
)

const (
	MinHorizon     = 1
	MaxHorizon     = 365
	DefaultHorizon = 30
)

type ModelVariant string

const (
	ModelArima   ModelVariant = "arima"
	ModelXGBoost ModelVariant = "xgboost"
)

// Variants lists every model variant in the order results are checked.
var Variants = []ModelVariant{ModelArima, ModelXGBoost}

func ParseModelVariant(s string) (ModelVariant, bool) {
	switch ModelVariant(s) {
	case ModelArima:
		return ModelArima, true
	case ModelXGBoost:
		return ModelXGBoost, true
	default:
		return "", false
	}
}

// Label is the display name used in headings and fallback error messages.
func (m ModelVariant) Label() string {
	switch m {
	case ModelArima:
		return "ARIMA"
	case ModelXGBoost:
		return "XGBoost"
	default:
		return string(m)
	}
}

func ValidateHorizon(h int) error {
	if h < MinHorizon || h > MaxHorizon {
		return fmt.Errorf("horizon must be between %d and %d, got %d", MinHorizon, MaxHorizon, h)
	}
	return nil
}

type Dataset struct {
	ID   string `json:"dataset_id"`
	Rows int    `json:"rows"`
}

// FileUpload is the selected dataset file. Content is streamed to the
// backend as-is; nothing about its format is checked locally.
type FileUpload struct {
	Name    string
	Content io.Reader
}

func (f FileUpload) Selected() bool {
	return f.Content != nil
}

type ForecastRequest struct {
	DatasetID string       `json:"dataset_id"`
	Model     ModelVariant `json:"model"`
	Horizon   int          `json:"horizon"`
}

type Metrics struct {
	MAE  *float64 `json:"MAE,omitempty"`
	RMSE *float64 `json:"RMSE,omitempty"`
}

type ForecastResult struct {
	Model    ModelVariant `json:"model"`
	Dates    []string     `json:"dates"`
	Forecast []float64    `json:"forecast"`
	Lower    []float64    `json:"lower"`
	Upper    []float64    `json:"upper"`
	Metrics  *Metrics     `json:"metrics,omitempty"`
}

// Validate checks that dates, forecast, lower and upper are parallel.
func (r *ForecastResult) Validate() error {
	n := len(r.Dates)
	if len(r.Forecast) != n || len(r.Lower) != n || len(r.Upper) != n {
		return fmt.Errorf("forecast series lengths differ: dates=%d forecast=%d lower=%d upper=%d",
			n, len(r.Forecast), len(r.Lower), len(r.Upper))
	}
	return nil
}

type ForecastPair struct {
	Arima   *ForecastResult `json:"arima"`
	XGBoost *ForecastResult `json:"xgboost"`
}

func (p ForecastPair) Get(m ModelVariant) *ForecastResult {
	switch m {
	case ModelArima:
		return p.Arima
	case ModelXGBoost:
		return p.XGBoost
	default:
		return nil
	}
}

func (p *ForecastPair) Set(m ModelVariant, r *ForecastResult) {
	switch m {
	case ModelArima:
		p.Arima = r
	case ModelXGBoost:
		p.XGBoost = r
	}
}

type ChartPoint struct {
	Date     string  `json:"date"`
	Forecast float64 `json:"forecast"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}
