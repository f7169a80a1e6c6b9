// Package core provides the API chassis for the sentinelle service.
// It creates the chi router and enforces cross-cutting concerns -- recovery,
// timeouts, request IDs, logging, CORS, and metrics -- before requests reach
// the domain handlers.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sentinelle/internal/config"
	"sentinelle/internal/observability"
)

// V1RouteRegistrar mounts a group of domain handler routes under /v1.
// The indirection keeps core free of imports on handler packages.
type V1RouteRegistrar func(r chi.Router)

// Server encapsulates the HTTP chassis dependencies, allowing injection
// during testing and distinct configuration per environment.
type Server struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.Metrics

	// HealthProbes are the dependency checks run by GET /health.
	HealthProbes []HealthProbe

	// V1RouteRegistrars are populated by the application entry point.
	V1RouteRegistrars []V1RouteRegistrar

	router *chi.Mux

	// closers are shut down, in order, during Shutdown.
	closers []func(ctx context.Context) error
}

// NewServer initializes the chassis and prepares the router for route
// mounting. It performs a fail-fast check on critical dependencies.
func NewServer(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		router:  chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration and tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// OnShutdown registers a cleanup function executed during Shutdown, in
// registration order.
func (s *Server) OnShutdown(fn func(ctx context.Context) error) {
	s.closers = append(s.closers, fn)
}

// Shutdown runs the registered cleanup functions. The first error is
// returned but later closers still run.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.Info("server shutdown initiated")

	var firstErr error
	for _, closer := range s.closers {
		if err := closer(ctx); err != nil {
			s.Logger.Error("shutdown cleanup failed", slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	s.Logger.Info("server shutdown complete")
	return firstErr
}
