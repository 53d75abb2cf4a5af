// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/georegions/regions/api"
	"github.com/georegions/regions/internal/config"
	"github.com/georegions/regions/internal/handlers"
	"github.com/georegions/regions/internal/metrics"
	"github.com/georegions/regions/internal/middleware"
	"github.com/georegions/regions/internal/models"
	"github.com/georegions/regions/pkg/logger"
)

// Server represents the HTTP server.
type Server struct {
	cfg           *config.Config
	log           *logger.Logger
	httpServer    *http.Server
	handler       http.Handler
	healthHandler *handlers.HealthHandler
	regionHandler *handlers.RegionHandler
	docsHandler   *handlers.DocsHandler
	listener      net.Listener
	running       bool
	mu            sync.RWMutex
}

// New creates a new Server instance.
func New(cfg *config.Config, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		cfg:           cfg,
		log:           log,
		healthHandler: handlers.NewHealthHandler(),
		docsHandler:   handlers.NewDocsHandler(api.OpenAPISpec, ""),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.handler = s.buildMiddlewareChain(mux)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// buildMiddlewareChain creates the middleware chain for the server.
// Metrics is outermost so recovered panics are still counted as 500s.
func (s *Server) buildMiddlewareChain(handler http.Handler) http.Handler {
	return middleware.New(
		middleware.Metrics(),
		middleware.RequestID(),
		middleware.ClientIP(s.cfg.Server.TrustProxy, s.cfg.Server.TrustedProxies),
		middleware.AccessLog(s.log),
		middleware.Recover(s.log),
	).Then(handler)
}

// registerRoutes sets up the HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Health check routes (GET only)
	mux.HandleFunc("GET /health", s.healthHandler.Health)
	mux.HandleFunc("GET /ready", s.healthHandler.Ready)

	// Metrics endpoint for Prometheus
	mux.Handle("GET /metrics", metrics.Handler())

	// API documentation
	mux.HandleFunc("GET /docs", s.docsHandler.ScalarUI)
	mux.HandleFunc("GET /docs/openapi.yaml", s.docsHandler.OpenAPISpec)

	mux.HandleFunc("GET /1.0/regions", s.handleRegions)
}

// handleRegions routes to the region handler.
func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	h := s.regionHandler
	s.mu.RUnlock()

	if h == nil {
		id := middleware.ErrorID(r.Context())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(models.NewErrorResponse(id, "Region service not configured"))
		return
	}
	h.List(w, r)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := s.cfg.Server.Address()

	// Create listener first to get the actual address (important when port is 0)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.log.Info("server starting", "address", listener.Addr().String())

	err = s.httpServer.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")

	// Mark as not ready during shutdown
	s.healthHandler.SetReady(false)

	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil {
		s.log.Error("shutdown error", "error", err)
		return err
	}

	s.log.Info("server stopped")
	return nil
}

// IsRunning returns whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's address.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// Handler returns the routed handler with the full middleware chain, for
// serving without a listener.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// HealthHandler returns the health handler.
func (s *Server) HealthHandler() *handlers.HealthHandler {
	return s.healthHandler
}

// SetRegionHandler sets the region handler for the server.
func (s *Server) SetRegionHandler(h *handlers.RegionHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regionHandler = h
}

// RegionHandler returns the region handler.
func (s *Server) RegionHandler() *handlers.RegionHandler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.regionHandler
}
