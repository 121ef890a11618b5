package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"demand-studio/internal/config"
	"demand-studio/internal/handlers"
	"demand-studio/internal/middleware"
	"demand-studio/internal/session"
)

type Server struct {
	mux         *http.ServeMux
	logger      *slog.Logger
	sessions    *session.Store
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
	withSession middleware.Middleware
}

type TemplateHandlers struct {
	Page http.HandlerFunc
}

type Deps struct {
	Config   *config.Config
	Sessions *session.Store
	Backend  handlers.Pinger
	Logger   *slog.Logger
	Version  string
}

func NewServer(deps Deps, templateHandlers *TemplateHandlers) *Server {
	cfg := deps.Config
	s := &Server{
		mux:         http.NewServeMux(),
		logger:      deps.Logger,
		sessions:    deps.Sessions,
		apiHandlers: handlers.NewAPIHandlers(deps.Sessions, deps.Backend, cfg.Backend.HealthTimeout, deps.Version, deps.Logger),
		sseHandlers: handlers.NewSSEHandlers(deps.Logger, cfg.Server.MaxUploadMemory),
		withSession: middleware.Session(deps.Sessions, cfg.Session),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Page
	s.handleSession("GET /{$}", templateHandlers.Page)

	// Operational endpoints
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.Handle("GET /metrics", promhttp.Handler())

	// REST API endpoints
	s.handleSession("GET /api/state", s.apiHandlers.HandleState)
	s.handleSession("GET /api/series/{model}", s.apiHandlers.HandleSeries)

	// Datastar SSE endpoints
	s.handleSession("GET /workflow/state", s.sseHandlers.HandleState)
	s.handleSession("POST /workflow/auth", s.sseHandlers.HandleAuth)
	s.handleSession("POST /workflow/upload", s.sseHandlers.HandleUpload)
	s.handleSession("POST /workflow/horizon", s.sseHandlers.HandleHorizon)
	s.handleSession("POST /workflow/rerun", s.sseHandlers.HandleRerun)
	s.handleSession("POST /workflow/reorder", s.sseHandlers.HandleReorder)
	s.handleSession("POST /workflow/simulate", s.sseHandlers.HandleSimulate)
}

func (s *Server) handleSession(pattern string, h http.HandlerFunc) {
	s.mux.Handle(pattern, s.withSession(h))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
