// Package server exposes the fetch-and-process pipeline over HTTP,
// together with the health, demo item, and metrics endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/c360studio/pagefetch/config"
)

// Server wraps the HTTP server lifecycle around a Handler.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// New builds a Server listening on cfg.Addr with the handler's routes
// registered.
func New(cfg config.ServerConfig, handler *Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:    cfg.Addr,
			Handler: mux,
			// WriteTimeout stays unset: /content requests legitimately run
			// for up to the configured fetch timeout.
			ReadTimeout: cfg.ReadTimeout,
		},
		logger: logger,
	}
}

// Start begins serving and blocks until the listener fails or Shutdown
// is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests
// up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
