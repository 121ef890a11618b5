// Package session keeps the per-browser workflow state on the server and
// composes the upload and forecast calls that drive it.
package session

import (
	"demand-studio/internal/models"
	"demand-studio/internal/workflow"
)

// ViewState is everything the studio renders for one browser. Transitions
// are value methods that return the next state and never touch the network.
type ViewState struct {
	Step     workflow.Step          `json:"step"`
	Auth     models.AuthCredentials `json:"auth"`
	FileName string                 `json:"file_name,omitempty"`
	Dataset  *models.Dataset        `json:"dataset,omitempty"`
	Horizon  int                    `json:"horizon"`
	Loading  bool                   `json:"loading"`
	Error    string                 `json:"error,omitempty"`

	Arima   *models.ForecastResult `json:"arima,omitempty"`
	XGBoost *models.ForecastResult `json:"xgboost,omitempty"`

	Reorder       *models.ReorderRecommendation `json:"reorder,omitempty"`
	Simulation    *models.SimulationOutcome     `json:"simulation,omitempty"`
	AdvisoryError string                        `json:"advisory_error,omitempty"`
}

func NewViewState() ViewState {
	return ViewState{
		Step:    workflow.Initial,
		Horizon: models.DefaultHorizon,
	}
}

// Result returns the stored result for a model variant, nil when absent.
func (v ViewState) Result(m models.ModelVariant) *models.ForecastResult {
	switch m {
	case models.ModelArima:
		return v.Arima
	case models.ModelXGBoost:
		return v.XGBoost
	default:
		return nil
	}
}

func (v ViewState) CanAuth() bool {
	return workflow.CanAuth(v.Auth)
}

// SubmitAuth records the credentials and advances to Upload when all three
// fields are filled. The bool reports whether the step changed.
func (v ViewState) SubmitAuth(c models.AuthCredentials) (ViewState, bool) {
	next, ok := v.Step.SubmitAuth(c)
	if !ok {
		return v, false
	}
	v.Auth = c
	v.Step = next
	return v, true
}

func (v ViewState) SelectFile(name string) ViewState {
	v.FileName = name
	return v
}

// SetHorizon rejects values outside [MinHorizon, MaxHorizon] and keeps the
// previous horizon.
func (v ViewState) SetHorizon(h int) (ViewState, bool) {
	if models.ValidateHorizon(h) != nil {
		return v, false
	}
	v.Horizon = h
	return v, true
}

// BeginRun clears the error, both results and the advisories together.
func (v ViewState) BeginRun() ViewState {
	v.Error = ""
	v.Arima = nil
	v.XGBoost = nil
	v.Reorder = nil
	v.Simulation = nil
	v.AdvisoryError = ""
	v.Loading = true
	return v
}

// UploadSucceeded commits the dataset. It stays set even if the forecasts
// that follow fail.
func (v ViewState) UploadSucceeded(ds models.Dataset) ViewState {
	v.Dataset = &ds
	return v
}

func (v ViewState) RunSucceeded(pair models.ForecastPair) ViewState {
	v.Arima = pair.Arima
	v.XGBoost = pair.XGBoost
	v.Step, _ = v.Step.CompleteUpload()
	v.Loading = false
	return v
}

// BeginRerun clears only the error. Results on screen stay until the new
// ones arrive.
func (v ViewState) BeginRerun() ViewState {
	v.Error = ""
	v.Loading = true
	return v
}

func (v ViewState) RerunSucceeded(pair models.ForecastPair) ViewState {
	v.Arima = pair.Arima
	v.XGBoost = pair.XGBoost
	v.Loading = false
	return v
}

func (v ViewState) Failed(message string) ViewState {
	v.Error = message
	v.Loading = false
	return v
}

func (v ViewState) ReorderReady(rec *models.ReorderRecommendation) ViewState {
	v.Reorder = rec
	v.AdvisoryError = ""
	return v
}

func (v ViewState) SimulationReady(out *models.SimulationOutcome) ViewState {
	v.Simulation = out
	v.AdvisoryError = ""
	return v
}

func (v ViewState) AdvisoryFailed(message string) ViewState {
	v.AdvisoryError = message
	return v
}
