// Package web provides the HTTP server for the proposal summary API.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/roasbeef/propsum/internal/summary"
)

// SummaryService answers summary requests.
type SummaryService interface {
	GetSummary(ctx context.Context, rawID string) (*summary.Envelope,
		error)

	Stats() summary.Stats
}

// HealthChecker reports whether the summary cache is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the summary API.
type Server struct {
	cfg     *Config
	service SummaryService
	health  HealthChecker
	log     *slog.Logger

	mux     *http.ServeMux
	handler http.Handler
	srv     *http.Server
}

// Config holds configuration for the web server.
type Config struct {
	Addr string

	// StaticDir, if set, is served for all non-API paths with a
	// fallback to index.html. The embedded landing page is used
	// otherwise.
	StaticDir string

	// Development adds error details to unexpected failures.
	Development bool

	// HealthTimeout bounds the cache ping of the health endpoint.
	HealthTimeout time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:          ":3000",
		HealthTimeout: 2 * time.Second,
	}
}

// NewServer creates a new web server. health may be nil.
func NewServer(cfg *Config, service SummaryService, health HealthChecker,
	log *slog.Logger) (*Server, error) {

	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = 2 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		cfg:     cfg,
		service: service,
		health:  health,
		log:     log.With("component", "web"),
		mux:     http.NewServeMux(),
	}

	s.registerAPIRoutes()

	frontendHandler, err := FrontendHandler(cfg.StaticDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create frontend handler: %w",
			err)
	}
	s.mux.Handle("/", frontendHandler)

	s.handler = s.requestID(s.logRequests(s.recoverer(s.mux)))

	return s, nil
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}

	return s.Serve(lis)
}

// Serve serves HTTP on lis until Shutdown.
func (s *Server) Serve(lis net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.log.Info("Starting web server", "addr", lis.Addr().String())

	err := s.srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}

	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv != nil {
		return s.srv.Shutdown(ctx)
	}

	return nil
}
