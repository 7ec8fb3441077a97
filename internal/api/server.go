// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/covergrid/pulse/internal/api/handler"
	"github.com/covergrid/pulse/internal/api/middleware"
	"github.com/covergrid/pulse/internal/api/response"
	"github.com/covergrid/pulse/internal/assistant"
	"github.com/covergrid/pulse/internal/auth"
	"github.com/covergrid/pulse/internal/core"
	"github.com/covergrid/pulse/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the dashboard HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// Config holds server configuration.
type Config struct {
	Host   string
	Port   int
	APIKey string
}

// Deps are the services the routes depend on. Assistant, Auth and
// Metrics are optional; their routes degrade accordingly.
type Deps struct {
	Content   handler.ContentSource
	Assistant *assistant.Service
	Auth      *auth.Service
	Metrics   *metrics.Registry
}

// NewServer creates the HTTP server and wires all routes.
func NewServer(cfg Config, deps Deps, logger *zap.Logger) (*Server, error) {
	if deps.Content == nil {
		return nil, fmt.Errorf("content source required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()

	var root http.Handler = mux
	if deps.Metrics != nil {
		root = metrics.HTTPMiddleware(deps.Metrics)(mux)
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      root,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		mux:    mux,
	}

	s.setupRoutes(cfg, deps)
	return s, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config, deps Deps) {
	apiKey := middleware.APIKeyAuth(cfg.APIKey)

	contentHandler := handler.NewContentHandler(deps.Content, s.logger)
	s.handle("GET /api/articles", apiKey, contentHandler.Articles)
	s.handle("GET /api/schedule", apiKey, contentHandler.Schedule)
	s.handle("GET /api/stories", apiKey, contentHandler.Stories)
	s.handle("GET /api/all", apiKey, contentHandler.All)
	// Older dashboard builds call /api/sheets for the same payload.
	s.handle("GET /api/sheets", apiKey, contentHandler.All)
	s.handle("GET /api/dashboard", apiKey, contentHandler.Dashboard)
	s.mux.HandleFunc("GET /api/health", contentHandler.Health)

	if deps.Assistant != nil {
		chatHandler := handler.NewChatHandler(deps.Assistant, deps.Metrics, s.logger)
		s.handle("POST /api/ai/chat", apiKey, chatHandler.Chat)
	} else {
		s.handle("POST /api/ai/chat", apiKey, handleAssistantDisabled)
	}

	if deps.Auth != nil {
		authHandler := handler.NewAuthHandler(deps.Auth, deps.Metrics, s.logger)
		s.mux.HandleFunc("POST /api/auth/login", authHandler.Login)

		bearer := middleware.BearerAuth(deps.Auth)
		s.handle("GET /api/auth/me", bearer, authHandler.Me)
	}

	if deps.Metrics != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(
			deps.Metrics.Registry,
			promhttp.HandlerOpts{},
		))
	}
}

func (s *Server) handle(pattern string, mw func(http.Handler) http.Handler, fn http.HandlerFunc) {
	s.mux.Handle(pattern, mw(fn))
}

func handleAssistantDisabled(w http.ResponseWriter, r *http.Request) {
	response.Error(w, http.StatusServiceUnavailable,
		core.WrapError(core.ErrConfigMissing, fmt.Errorf("assistant provider not configured")))
}

// Handler exposes the full middleware-wrapped handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
