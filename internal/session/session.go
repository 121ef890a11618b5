package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	apperrors "demand-studio/internal/errors"
	"demand-studio/internal/models"
	"demand-studio/internal/observability"
	"demand-studio/internal/workflow"
)

const (
	opRun      = "run"
	opRerun    = "rerun"
	opReorder  = "reorder"
	opSimulate = "simulate"
)

type Uploader interface {
	Upload(ctx context.Context, file models.FileUpload) (models.Dataset, error)
}

type Forecaster interface {
	Run(ctx context.Context, datasetID string, horizon int) (models.ForecastPair, error)
}

type Advisor interface {
	Reorder(ctx context.Context, req models.ReorderRequest) (*models.ReorderRecommendation, error)
	Simulate(ctx context.Context, req models.SimulationRequest) (*models.SimulationOutcome, error)
}

// Deps are the collaborators every session shares.
type Deps struct {
	Uploader   Uploader
	Forecaster Forecaster
	Advisor    Advisor
	Logger     *slog.Logger
}

// Session owns one ViewState. The mutex is never held across a backend
// call.
//
// Run and Rerun each take a new generation when they start. A completion
// is written only while its generation is still the latest, so an older
// operation that settles late cannot overwrite a newer one.
type Session struct {
	id   string
	deps Deps
	now  func() time.Time

	mu       sync.Mutex
	state    ViewState
	gen      uint64
	lastSeen time.Time
}

func newSession(id string, deps Deps, now func() time.Time) *Session {
	return &Session{
		id:       id,
		deps:     deps,
		now:      now,
		state:    NewViewState(),
		lastSeen: now(),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Snapshot() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) SubmitAuth(c models.AuthCredentials) (ViewState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.state.SubmitAuth(c)
	if ok {
		s.state = next
		s.deps.Logger.Info("session authenticated", "session_id", s.id)
	}
	return s.state, ok
}

func (s *Session) SetHorizon(h int) (ViewState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.state.SetHorizon(h)
	if ok {
		s.state = next
	}
	return s.state, ok
}

// Run uploads the file and, when that succeeds, fetches both forecasts for
// the new dataset. It is a no-op outside the Upload step or without a file.
// notify, when non-nil, receives each intermediate state.
func (s *Session) Run(ctx context.Context, file models.FileUpload, notify func(ViewState)) ViewState {
	if !file.Selected() {
		return s.Snapshot()
	}

	gen, st, ok := s.start(func(v ViewState) (ViewState, bool) {
		if v.Step != workflow.StepUpload {
			return v, false
		}
		return v.SelectFile(file.Name).BeginRun(), true
	})
	if !ok {
		return st
	}
	emit(notify, st)

	ds, err := s.deps.Uploader.Upload(ctx, file)
	if err != nil {
		return s.fail(gen, opRun, err)
	}

	st, ok = s.apply(gen, opRun, func(v ViewState) ViewState {
		return v.UploadSucceeded(ds)
	})
	if !ok {
		return st
	}
	emit(notify, st)

	pair, err := s.deps.Forecaster.Run(ctx, ds.ID, st.Horizon)
	if err != nil {
		return s.fail(gen, opRun, err)
	}

	return s.succeed(gen, opRun, func(v ViewState) ViewState {
		return v.RunSucceeded(pair)
	})
}

// Rerun refetches both forecasts for the stored dataset at the current
// horizon. It is a no-op unless the dashboard is showing. Prior results
// are kept when it fails.
func (s *Session) Rerun(ctx context.Context, notify func(ViewState)) ViewState {
	gen, st, ok := s.start(func(v ViewState) (ViewState, bool) {
		if v.Step != workflow.StepDashboard || v.Dataset == nil {
			return v, false
		}
		return v.BeginRerun(), true
	})
	if !ok {
		return st
	}
	emit(notify, st)

	pair, err := s.deps.Forecaster.Run(ctx, st.Dataset.ID, st.Horizon)
	if err != nil {
		return s.fail(gen, opRerun, err)
	}

	return s.succeed(gen, opRerun, func(v ViewState) ViewState {
		return v.RerunSucceeded(pair)
	})
}

// Reorder asks for a reorder recommendation on the stored dataset. The
// request's dataset id is always taken from the session.
func (s *Session) Reorder(ctx context.Context, req models.ReorderRequest) ViewState {
	ds, ok := s.dashboardDataset()
	if !ok {
		return s.Snapshot()
	}
	req.DatasetID = ds.ID

	rec, err := s.deps.Advisor.Reorder(ctx, req)
	return s.advise(opReorder, err, func(v ViewState) ViewState {
		return v.ReorderReady(rec)
	})
}

func (s *Session) Simulate(ctx context.Context, req models.SimulationRequest) ViewState {
	ds, ok := s.dashboardDataset()
	if !ok {
		return s.Snapshot()
	}
	req.DatasetID = ds.ID

	out, err := s.deps.Advisor.Simulate(ctx, req)
	return s.advise(opSimulate, err, func(v ViewState) ViewState {
		return v.SimulationReady(out)
	})
}

func (s *Session) dashboardDataset() (models.Dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Step != workflow.StepDashboard || s.state.Dataset == nil {
		return models.Dataset{}, false
	}
	return *s.state.Dataset, true
}

func (s *Session) advise(op string, err error, onSuccess func(ViewState) ViewState) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		observability.WorkflowOperations.WithLabelValues(op, "failed").Inc()
		s.deps.Logger.Warn("advisory failed", "session_id", s.id, "operation", op, "error", err)
		s.state = s.state.AdvisoryFailed(apperrors.UserMessage(err))
		return s.state
	}
	observability.WorkflowOperations.WithLabelValues(op, "ok").Inc()
	s.state = onSuccess(s.state)
	return s.state
}

func (s *Session) start(begin func(ViewState) (ViewState, bool)) (uint64, ViewState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := begin(s.state)
	if !ok {
		return 0, s.state, false
	}
	s.gen++
	s.state = next
	return s.gen, s.state, true
}

func (s *Session) apply(gen uint64, op string, fn func(ViewState) ViewState) (ViewState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		observability.WorkflowOperations.WithLabelValues(op, "superseded").Inc()
		s.deps.Logger.Info("dropping superseded completion",
			"session_id", s.id,
			"operation", op,
			"generation", gen,
			"current", s.gen,
		)
		return s.state, false
	}
	s.state = fn(s.state)
	return s.state, true
}

func (s *Session) succeed(gen uint64, op string, fn func(ViewState) ViewState) ViewState {
	st, ok := s.apply(gen, op, fn)
	if ok {
		observability.WorkflowOperations.WithLabelValues(op, "ok").Inc()
	}
	return st
}

func (s *Session) fail(gen uint64, op string, err error) ViewState {
	msg := apperrors.UserMessage(err)
	st, ok := s.apply(gen, op, func(v ViewState) ViewState {
		return v.Failed(msg)
	})
	if ok {
		observability.WorkflowOperations.WithLabelValues(op, "failed").Inc()
		s.deps.Logger.Warn("workflow operation failed",
			"session_id", s.id,
			"operation", op,
			"error", err,
		)
	}
	return st
}

func emit(notify func(ViewState), st ViewState) {
	if notify != nil {
		notify(st)
	}
}

