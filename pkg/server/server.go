// Package server exposes the layout pipeline over HTTP.
//
// # Endpoints
//
//	GET  /healthz     liveness and build version
//	POST /v1/layout   pedigree document in, layout document out
//	POST /v1/render   pedigree document in, one rendered artifact out
//
// Request bodies are pedigree documents in JSON, or TOML when the request
// carries Content-Type application/toml. Layout options are query
// parameters: align, packed, width, child_penalty, spouse_penalty, refresh,
// and for /v1/render also format and detailed.
//
// Errors are JSON objects {"code": ..., "error": ...}. Problems with the
// submitted pedigree answer 422, everything else 500.
//
// Every response carries an X-Request-ID header, echoing the caller's
// value when one was sent.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/complexdatacollective/pedigree/pkg/pipeline"
)

// DefaultMaxBody bounds request bodies.
const DefaultMaxBody = 8 << 20

// Server serves the layout API.
type Server struct {
	runner  *pipeline.Runner
	logger  *log.Logger
	maxBody int64
	router  chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithMaxBody overrides the request body limit in bytes.
func WithMaxBody(n int64) Option { return func(s *Server) { s.maxBody = n } }

// New builds a server around runner.
func New(runner *pipeline.Runner, logger *log.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{runner: runner, logger: logger, maxBody: DefaultMaxBody}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
