package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"demand-studio/internal/models"
	"demand-studio/internal/session"
	"demand-studio/internal/ui/templates"
)

// SSEHandlers drive the workflow over datastar server-sent events. Every
// handler patches the #workflow fragment and the server-owned signals.
type SSEHandlers struct {
	logger          *slog.Logger
	maxUploadMemory int64
}

func NewSSEHandlers(logger *slog.Logger, maxUploadMemory int64) *SSEHandlers {
	return &SSEHandlers{
		logger:          logger,
		maxUploadMemory: maxUploadMemory,
	}
}

func (h *SSEHandlers) HandleState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	sse := datastar.NewSSE(w, r)
	h.patch(sse, s.Snapshot())
}

func (h *SSEHandlers) HandleAuth(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var signals authSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.badSignals(w, "auth", err)
		return
	}

	st, _ := s.SubmitAuth(models.AuthCredentials{
		Name:     signals.Name,
		Email:    signals.Email,
		Password: signals.Password,
	})

	sse := datastar.NewSSE(w, r)
	h.patch(sse, st)
	if err := sse.MarshalAndPatchSignals(map[string]any{"password": ""}); err != nil {
		h.logger.Warn("clear password signal", "error", err)
	}
}

// HandleUpload reads the multipart file before opening the event stream,
// then runs the upload and both forecasts. A request without a file only
// re-renders the current state.
func (h *SSEHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var file multipart.File
	var name string
	if err := r.ParseMultipartForm(h.maxUploadMemory); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			h.badSignals(w, "upload", err)
			return
		}
	} else {
		defer r.MultipartForm.RemoveAll()
		f, header, err := r.FormFile("file")
		if err != nil && !errors.Is(err, http.ErrMissingFile) {
			h.badSignals(w, "upload", err)
			return
		}
		if err == nil {
			defer f.Close()
			file, name = f, header.Filename
		}
	}

	sse := datastar.NewSSE(w, r)
	if file == nil {
		h.patch(sse, s.Snapshot())
		return
	}

	ctx := context.WithoutCancel(r.Context())
	st := s.Run(ctx, models.FileUpload{Name: name, Content: file}, func(st session.ViewState) {
		h.patch(sse, st)
	})
	h.patch(sse, st)
}

// HandleHorizon stores a new horizon. Out-of-range or non-integer values
// are dropped and the stored horizon is sent back to the input.
func (h *SSEHandlers) HandleHorizon(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var signals horizonSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.badSignals(w, "horizon", err)
		return
	}

	st := s.Snapshot()
	if hz, ok := signals.Horizon.Int(); ok {
		st, _ = s.SetHorizon(hz)
	}

	sse := datastar.NewSSE(w, r)
	h.patch(sse, st)
}

func (h *SSEHandlers) HandleRerun(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var signals horizonSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.badSignals(w, "rerun", err)
		return
	}
	if hz, ok := signals.Horizon.Int(); ok {
		s.SetHorizon(hz)
	}

	sse := datastar.NewSSE(w, r)
	ctx := context.WithoutCancel(r.Context())
	st := s.Rerun(ctx, func(st session.ViewState) {
		h.patch(sse, st)
	})
	h.patch(sse, st)
}

func (h *SSEHandlers) HandleReorder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var signals reorderSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.badSignals(w, "reorder", err)
		return
	}

	lead, _ := signals.LeadTime.Int()
	inv, _ := signals.Inventory.Int()
	req := models.ReorderRequest{
		LeadTimeDays:     lead,
		ServiceLevel:     signals.ServiceLevel.value,
		CurrentInventory: inv,
	}

	sse := datastar.NewSSE(w, r)
	h.patch(sse, s.Reorder(context.WithoutCancel(r.Context()), req))
}

func (h *SSEHandlers) HandleSimulate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var signals simulateSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.badSignals(w, "simulate", err)
		return
	}

	inv, _ := signals.Inventory.Int()
	sims, ok := signals.Simulations.Int()
	if !ok {
		sims = models.DefaultSimulations
	}
	req := models.SimulationRequest{
		CurrentInventory: inv,
		Simulations:      sims,
	}

	sse := datastar.NewSSE(w, r)
	h.patch(sse, s.Simulate(context.WithoutCancel(r.Context()), req))
}

func (h *SSEHandlers) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, ok := session.FromContext(r.Context())
	if !ok {
		h.logger.Error("workflow request without session", "path", r.URL.Path)
		http.Error(w, "session required", http.StatusInternalServerError)
	}
	return s, ok
}

func (h *SSEHandlers) badSignals(w http.ResponseWriter, op string, err error) {
	h.logger.Warn("unreadable workflow request", "operation", op, "error", err)
	http.Error(w, "bad request", http.StatusBadRequest)
}

// patch sends the workflow fragment and the server-owned signals. Write
// errors mean the browser went away; the session already holds the state.
func (h *SSEHandlers) patch(sse *datastar.ServerSentEventGenerator, st session.ViewState) {
	if err := sse.PatchElementTempl(templates.Workflow(templates.NewView(st))); err != nil {
		h.logger.Debug("patch workflow fragment", "error", err)
		return
	}
	if err := sse.MarshalAndPatchSignals(templates.StateSignals(st)); err != nil {
		h.logger.Debug("patch workflow signals", "error", err)
	}
}
