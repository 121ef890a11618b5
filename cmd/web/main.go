package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"demand-studio/internal/client"
	"demand-studio/internal/config"
	"demand-studio/internal/middleware"
	"demand-studio/internal/observability"
	"demand-studio/internal/server"
	"demand-studio/internal/services"
	"demand-studio/internal/session"
	"demand-studio/internal/ui/templates"
)

const (
	version       = "1.0.0"
	renderTimeout = 10 * time.Second
)

// handlePage renders the full page for the caller's session.
func handlePage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	s, ok := session.FromContext(ctx)
	if !ok {
		http.Error(w, "session required", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Page(templates.NewView(s.Snapshot())).Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func newSessionStore(cfg *config.Config, backend *client.Client, logger *slog.Logger) *session.Store {
	return session.NewStore(session.Deps{
		Uploader:   services.NewUploadCoordinator(backend, logger),
		Forecaster: services.NewForecastOrchestrator(backend, logger),
		Advisor:    services.NewInventoryAdvisor(backend, logger),
		Logger:     logger,
	}, cfg.Session.IdleTTL)
}

func newHandler(cfg *config.Config, srv http.Handler, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
		middleware.Metrics(),
	)
	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"forecast_api", cfg.Backend.BaseURL,
		"addr", cfg.Address(),
	)

	shutdownTracing, err := observability.SetupTracing(context.Background(), cfg.Telemetry, version)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}

	backend := client.New(cfg.Backend.BaseURL, client.WithLogger(logger))

	pingCtx, cancel := context.WithTimeout(context.Background(), cfg.Backend.HealthTimeout)
	if err := backend.Ping(pingCtx); err != nil {
		logger.Warn("forecast API not reachable at startup", "base_url", cfg.Backend.BaseURL, "error", err)
	}
	cancel()

	sessions := newSessionStore(cfg, backend, logger)

	srv := server.NewServer(server.Deps{
		Config:   cfg,
		Sessions: sessions,
		Backend:  backend,
		Logger:   logger,
		Version:  version,
	}, &server.TemplateHandlers{Page: handlePage})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, srv, rateLimiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.Go("session-janitor", func(ctx context.Context) {
		sessions.Run(ctx, cfg.Session.SweepInterval)
	})
	gracefulServer.Go("rate-limit-janitor", func(ctx context.Context) {
		rateLimiter.Run(ctx, time.Minute)
	})

	gracefulServer.RegisterShutdownHook("tracing", shutdownTracing)
	gracefulServer.RegisterShutdownHook("sessions", func(ctx context.Context) error {
		logger.Info("discarding workflow sessions", "active", sessions.Len())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
