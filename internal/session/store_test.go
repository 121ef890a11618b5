package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"demand-studio/internal/workflow"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(clock *fakeClock) *Store {
	deps := Deps{
		Uploader:   &stubUploader{},
		Forecaster: &stubForecaster{},
		Advisor:    &stubAdvisor{},
		Logger:     testLogger(),
	}
	return NewStore(deps, time.Hour, WithClock(clock.Now))
}

func TestStore_GetOrCreate(t *testing.T) {
	st := newTestStore(&fakeClock{now: time.Now()})

	s, created := st.GetOrCreate("")
	if !created || s.ID() == "" {
		t.Fatalf("GetOrCreate(\"\") = %q, %v", s.ID(), created)
	}

	again, created := st.GetOrCreate(s.ID())
	if created || again != s {
		t.Error("existing id should resolve to the same session")
	}

	other, created := st.GetOrCreate("unknown-id")
	if !created || other.ID() == "unknown-id" {
		t.Error("unknown ids should get a fresh server-generated session")
	}

	if st.Len() != 2 {
		t.Errorf("Len() = %d, want 2", st.Len())
	}
}

func TestStore_SessionsAreIndependent(t *testing.T) {
	st := newTestStore(&fakeClock{now: time.Now()})
	a := st.Create()
	b := st.Create()

	a.SubmitAuth(validCreds)
	if b.Snapshot().Step != workflow.StepAuth {
		t.Error("state leaked between sessions")
	}
}

func TestStore_Sweep(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	st := newTestStore(clock)

	idle := st.Create()
	busy := st.Create()
	busy.mu.Lock()
	busy.state.Loading = true
	busy.mu.Unlock()

	clock.Advance(30 * time.Minute)
	fresh := st.Create()

	clock.Advance(45 * time.Minute)
	if n := st.Sweep(); n != 1 {
		t.Fatalf("Sweep() removed %d, want 1", n)
	}
	if _, ok := st.Get(idle.ID()); ok {
		t.Error("idle session should be gone")
	}
	if _, ok := st.Get(busy.ID()); !ok {
		t.Error("session with an operation in flight should be kept")
	}
	if _, ok := st.Get(fresh.ID()); !ok {
		t.Error("recently seen session should be kept")
	}
}

func TestStore_GetRefreshesLastSeen(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	st := newTestStore(clock)
	s := st.Create()

	clock.Advance(50 * time.Minute)
	st.Get(s.ID())
	clock.Advance(50 * time.Minute)

	if n := st.Sweep(); n != 0 {
		t.Errorf("Sweep() removed %d, want 0", n)
	}
}

func TestStore_Stats(t *testing.T) {
	st := newTestStore(&fakeClock{now: time.Now()})
	st.Create()
	s := st.Create()
	s.SubmitAuth(validCreds)

	stats := st.Stats()
	if stats.Active != 2 {
		t.Errorf("Active = %d", stats.Active)
	}
	if stats.ByStep[workflow.StepAuth] != 1 || stats.ByStep[workflow.StepUpload] != 1 {
		t.Errorf("ByStep = %v", stats.ByStep)
	}
}

func TestStore_RunStopsOnCancel(t *testing.T) {
	st := newTestStore(&fakeClock{now: time.Now()})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		st.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context should carry no session")
	}
	st := newTestStore(&fakeClock{now: time.Now()})
	s := st.Create()
	got, ok := FromContext(WithSession(context.Background(), s))
	if !ok || got != s {
		t.Error("session not recovered from context")
	}
}
