// Package server exposes commit history rendering over HTTP.
//
// # Routes
//
//	GET /healthz          liveness probe
//	GET /graph.{format}   rendered history (dot, svg, png, jpg, pdf)
//	GET /stats            JSON summary of the full and filtered history
//
// Query parameters override the configured defaults:
//
//	branches, tags, roots, merges, bifurcations, ids   booleans ("" means true)
//	include                                            revision, repeatable or comma separated
//	digits                                             auto, full or a width
//	scope                                              all, local or remote
//
// Every response carries an X-Request-ID header. Errors are JSON objects with
// the error code of package errors and a matching HTTP status.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/bigpicture/pkg/pipeline"
)

const (
	// DefaultTimeout bounds a single request when Config.Timeout is zero.
	DefaultTimeout = 30 * time.Second

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Config configures a [Server].
type Config struct {
	Runner *pipeline.Runner
	Source pipeline.Source

	// Defaults are the options used when a request sets no query parameters.
	// They must not have been validated yet.
	Defaults pipeline.Options

	// Timeout bounds each request. Zero means DefaultTimeout; negative
	// disables the limit.
	Timeout time.Duration

	Logger *log.Logger
}

// Server serves one history source.
type Server struct {
	runner   *pipeline.Runner
	source   pipeline.Source
	defaults pipeline.Options
	timeout  time.Duration
	logger   *log.Logger
	router   chi.Router
}

// New builds a server and its routes.
func New(cfg Config) *Server {
	s := &Server{
		runner:   cfg.Runner,
		source:   cfg.Source,
		defaults: cfg.Defaults,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger,
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.timeout == 0 {
		s.timeout = DefaultTimeout
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)
	if s.timeout > 0 {
		r.Use(timeout(s.timeout))
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/graph.{format}", s.handleGraph)
	r.Get("/stats", s.handleStats)
	r.NotFound(s.handleNotFound)
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully and returns ctx.Err().
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("serving history", "addr", addr, "source", s.source.String(), "timeout", s.timeout)

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}
