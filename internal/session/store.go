package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"demand-studio/internal/observability"
	"demand-studio/internal/workflow"
)

// Store keeps live sessions in memory. Nothing survives a restart.
type Store struct {
	deps   Deps
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

type StoreOption func(*Store)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) StoreOption {
	return func(st *Store) {
		st.now = now
	}
}

func NewStore(deps Deps, idleTTL time.Duration, opts ...StoreOption) *Store {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	st := &Store{
		deps:     deps,
		ttl:      idleTTL,
		logger:   deps.Logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Get returns the session with the given id and marks it as seen.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

func (st *Store) Create() *Session {
	s := newSession(uuid.NewString(), st.deps, st.now)

	st.mu.Lock()
	st.sessions[s.id] = s
	n := len(st.sessions)
	st.mu.Unlock()

	observability.ActiveSessions.Set(float64(n))
	st.logger.Debug("session created", "session_id", s.id)
	return s
}

// GetOrCreate resolves id to a live session or starts a new one. The bool
// reports whether a new session was created.
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s, false
		}
	}
	return st.Create(), true
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep drops sessions idle for longer than the TTL. Sessions with an
// operation in flight are kept.
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.ttl)

	st.mu.Lock()
	removed := 0
	for id, s := range st.sessions {
		if s.LastSeen().After(cutoff) || s.Snapshot().Loading {
			continue
		}
		delete(st.sessions, id)
		removed++
	}
	n := len(st.sessions)
	st.mu.Unlock()

	observability.ActiveSessions.Set(float64(n))
	if removed > 0 {
		st.logger.Info("expired idle sessions", "removed", removed, "active", n)
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

type Stats struct {
	Active    int                   `json:"active"`
	Loading   int                   `json:"loading"`
	ByStep    map[workflow.Step]int `json:"by_step"`
	IdleTTL   string                `json:"idle_ttl"`
	Timestamp time.Time             `json:"timestamp"`
}

func (st *Store) Stats() Stats {
	st.mu.RLock()
	list := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		list = append(list, s)
	}
	st.mu.RUnlock()

	stats := Stats{
		Active: len(list),
		ByStep: map[workflow.Step]int{
			workflow.StepAuth:      0,
			workflow.StepUpload:    0,
			workflow.StepDashboard: 0,
		},
		IdleTTL:   st.ttl.String(),
		Timestamp: st.now().UTC(),
	}
	for _, s := range list {
		v := s.Snapshot()
		stats.ByStep[v.Step]++
		if v.Loading {
			stats.Loading++
		}
	}
	return stats
}

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
