// Package api exposes SchoolBot's admin HTTP surface.
//
// The endpoints are operational only: liveness and a read-only view of
// active dialogue sessions. Student and teacher interaction happens over the
// chat transport, never over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/edusuite/schoolbot/internal/models"
)

// Constants for API server configuration
const (
	// DefaultAddr is the default listen address for the admin API.
	DefaultAddr = ":8080"
	// DefaultReadTimeout bounds how long a request may take to arrive.
	DefaultReadTimeout = 10 * time.Second
	// DefaultWriteTimeout bounds how long a response may take to flush.
	DefaultWriteTimeout = 10 * time.Second
	// DefaultShutdownTimeout bounds graceful shutdown on Stop.
	DefaultShutdownTimeout = 5 * time.Second
)

// SessionInspector is the read-only session view the server publishes.
// Implemented by session.Store.
type SessionInspector interface {
	Len() int
	States() map[models.StateType]int
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr overrides the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// Server serves the admin endpoints.
type Server struct {
	sessions SessionInspector
	httpSrv  *http.Server
}

// NewServer creates an admin API server over the given session view.
func NewServer(sessions SessionInspector, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	s := &Server{sessions: sessions}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.HandleFunc("/sessions", s.sessionsHandler)

	s.httpSrv = &http.Server{
		Addr:         cfg.Addr,
		Handler:      mux,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
	return s
}

// Start runs the HTTP listener until it fails or Stop is called.
func (s *Server) Start() error {
	slog.Info("Admin API listening", "addr", s.httpSrv.Addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin api server failed: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	slog.Info("Admin API shutting down")
	return s.httpSrv.Shutdown(ctx)
}

// Handler returns the server's HTTP handler (for tests).
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}
