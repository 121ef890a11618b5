// Package templates renders the studio page and the workflow fragment that
// SSE handlers patch into it.
package templates

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"demand-studio/internal/models"
	"demand-studio/internal/services"
	"demand-studio/internal/session"
	"demand-studio/internal/workflow"
)

const (
	// WorkflowID is the element every workflow patch replaces.
	WorkflowID = "workflow"

	acceptedFormat  = "CSV with columns date, product_name, demand"
	maxPreviewRows  = 14
	defaultLeadTime = 7
	defaultService  = 0.95
)

//go:embed views/*.html
var viewFS embed.FS

var views = template.Must(template.New("views").Funcs(template.FuncMap{
	"num": func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"pct": func(v float64) string { return fmt.Sprintf("%.1f%%", v*100) },
}).ParseFS(viewFS, "views/*.html"))

type StepItem struct {
	Index  int
	Label  string
	Active bool
	Done   bool
}

// ModelPanel is one model's chart card.
type ModelPanel struct {
	Model       models.ModelVariant
	Label       string
	Points      []models.ChartPoint
	Preview     []models.ChartPoint
	Metrics     *models.Metrics
	ShowMetrics bool
}

type View struct {
	Step           workflow.Step
	Steps          []StepItem
	Name           string
	FileName       string
	Dataset        *models.Dataset
	Horizon        int
	MinHorizon     int
	MaxHorizon     int
	Loading        bool
	Error          string
	Panels         []ModelPanel
	Reorder        *models.ReorderRecommendation
	Simulation     *models.SimulationOutcome
	AdvisoryError  string
	AcceptedFormat string
	Signals        string
}

var stepLabels = []struct {
	step  workflow.Step
	label string
}{
	{workflow.StepAuth, "Authenticate"},
	{workflow.StepUpload, "Upload data"},
	{workflow.StepDashboard, "Compare forecasts"},
}

func NewView(st session.ViewState) View {
	v := View{
		Step:           st.Step,
		Name:           st.Auth.Name,
		FileName:       st.FileName,
		Dataset:        st.Dataset,
		Horizon:        st.Horizon,
		MinHorizon:     models.MinHorizon,
		MaxHorizon:     models.MaxHorizon,
		Loading:        st.Loading,
		Error:          st.Error,
		Reorder:        st.Reorder,
		Simulation:     st.Simulation,
		AdvisoryError:  st.AdvisoryError,
		AcceptedFormat: acceptedFormat,
	}

	current := st.Step.Index()
	for _, s := range stepLabels {
		idx := s.step.Index()
		v.Steps = append(v.Steps, StepItem{
			Index:  idx,
			Label:  s.label,
			Active: idx == current,
			Done:   idx < current,
		})
	}

	for _, m := range models.Variants {
		r := st.Result(m)
		if r == nil {
			continue
		}
		points := services.ToChartPoints(r)
		preview := points
		if len(preview) > maxPreviewRows {
			preview = preview[:maxPreviewRows]
		}
		v.Panels = append(v.Panels, ModelPanel{
			Model:       m,
			Label:       m.Label(),
			Points:      points,
			Preview:     preview,
			Metrics:     r.Metrics,
			ShowMetrics: m == models.ModelXGBoost || r.Metrics != nil,
		})
	}

	v.Signals = mustJSON(InitialSignals(st))
	return v
}

// InitialSignals seeds the browser-side signal store on a full page render.
func InitialSignals(st session.ViewState) map[string]any {
	signals := StateSignals(st)
	signals["name"] = st.Auth.Name
	signals["email"] = st.Auth.Email
	signals["password"] = ""
	signals["fileSelected"] = false
	signals["leadTime"] = defaultLeadTime
	signals["serviceLevel"] = defaultService
	signals["inventory"] = 0
	signals["simulations"] = models.DefaultSimulations
	return signals
}

// StateSignals are the signals the server owns and re-sends after every
// state change.
func StateSignals(st session.ViewState) map[string]any {
	charts := make(map[string][]models.ChartPoint, len(models.Variants))
	for _, m := range models.Variants {
		charts[string(m)] = services.ToChartPoints(st.Result(m))
	}
	return map[string]any{
		"step":    st.Step,
		"horizon": st.Horizon,
		"loading": st.Loading,
		"charts":  charts,
	}
}

func Page(v View) templ.Component {
	return render("page", v)
}

func Workflow(v View) templ.Component {
	return render("workflow", v)
}

func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return views.ExecuteTemplate(w, name, data)
	})
}

// MAE and RMSE render "-" for a metric the backend did not report.
func (p ModelPanel) MAE() string {
	if p.Metrics == nil {
		return formatMetric(nil)
	}
	return formatMetric(p.Metrics.MAE)
}

func (p ModelPanel) RMSE() string {
	if p.Metrics == nil {
		return formatMetric(nil)
	}
	return formatMetric(p.Metrics.RMSE)
}

func formatMetric(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
