package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"demand-studio/internal/config"
)

const hookTimeout = 10 * time.Second

type shutdownHook struct {
	name string
	fn   func(ctx context.Context) error
}

type worker struct {
	name string
	fn   func(ctx context.Context)
}

// GracefulServer runs the HTTP server plus background workers and tears
// them down together: workers are cancelled, then in-flight requests and
// shutdown hooks get ShutdownTimeout to finish.
type GracefulServer struct {
	server  *http.Server
	logger  *slog.Logger
	config  *config.Config
	mu      sync.RWMutex
	hooks   []shutdownHook
	workers []worker
}

func NewGracefulServer(server *http.Server, logger *slog.Logger, config *config.Config) *GracefulServer {
	return &GracefulServer{
		server: server,
		logger: logger,
		config: config,
	}
}

func (gs *GracefulServer) RegisterShutdownHook(name string, fn func(ctx context.Context) error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.hooks = append(gs.hooks, shutdownHook{name: name, fn: fn})
}

// Go registers a background worker. It starts with the server and its
// context is cancelled when shutdown begins.
func (gs *GracefulServer) Go(name string, fn func(ctx context.Context)) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.workers = append(gs.workers, worker{name: name, fn: fn})
}

// ListenAndServe serves until SIGINT or SIGTERM.
func (gs *GracefulServer) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", gs.server.Addr, err)
	}
	return gs.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down.
func (gs *GracefulServer) Serve(ctx context.Context, ln net.Listener) error {
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	var workersWG sync.WaitGroup

	gs.mu.RLock()
	workers := append([]worker(nil), gs.workers...)
	gs.mu.RUnlock()

	for _, w := range workers {
		workersWG.Add(1)
		go func() {
			defer workersWG.Done()
			gs.logger.Debug("background worker started", "worker", w.name)
			w.fn(workerCtx)
			gs.logger.Debug("background worker stopped", "worker", w.name)
		}()
	}

	serverErrors := make(chan error, 1)
	go func() {
		gs.logger.Info("starting server",
			"addr", ln.Addr().String(),
			"read_timeout", gs.config.Server.ReadTimeout,
			"write_timeout", gs.config.Server.WriteTimeout,
		)
		serverErrors <- gs.server.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		cancelWorkers()
		workersWG.Wait()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		gs.logger.Info("shutdown signal received", "cause", context.Cause(ctx))

		cancelWorkers()
		workersWG.Wait()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), gs.config.Server.ShutdownTimeout)
		defer cancel()

		return gs.shutdown(shutdownCtx)
	}
}

func (gs *GracefulServer) shutdown(ctx context.Context) error {
	gs.logger.Info("starting graceful shutdown",
		"timeout", gs.config.Server.ShutdownTimeout,
	)

	// Drain requests first so hooks such as the tracer flush see their spans.
	gs.logger.Info("stopping HTTP server")
	var errs []error
	if err := gs.server.Shutdown(ctx); err != nil {
		gs.logger.Error("HTTP server shutdown failed", "error", err)
		errs = append(errs, fmt.Errorf("HTTP server shutdown failed: %w", err))
	} else {
		gs.logger.Info("HTTP server stopped gracefully")
	}

	gs.mu.RLock()
	hooks := append([]shutdownHook(nil), gs.hooks...)
	gs.mu.RUnlock()

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, hook := range hooks {
		wg.Add(1)
		go func() {
			defer wg.Done()

			hookCtx, cancel := context.WithTimeout(ctx, hookTimeout)
			defer cancel()

			gs.logger.Debug("executing shutdown hook", "hook", hook.name)
			if err := hook.fn(hookCtx); err != nil {
				gs.logger.Error("shutdown hook failed",
					"hook", hook.name,
					"error", err,
				)
				mu.Lock()
				errs = append(errs, fmt.Errorf("shutdown hook %s failed: %w", hook.name, err))
				mu.Unlock()
				return
			}
			gs.logger.Debug("shutdown hook completed", "hook", hook.name)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		gs.logger.Info("graceful shutdown completed")
		return errors.Join(errs...)

	case <-ctx.Done():
		gs.logger.Warn("shutdown timeout exceeded, forcing exit")
		return ctx.Err()
	}
}
