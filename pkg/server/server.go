// Package server is the HTTP host shell around the render pipeline.
//
// It keeps one [session.Session] per user, applies expand, collapse and
// reset actions to it, and serves the resulting payload documents.
//
// # Routes
//
//	POST   /sessions                          create a session
//	GET    /sessions/{id}                     session state
//	PATCH  /sessions/{id}                     change view or layout
//	DELETE /sessions/{id}                     end a session
//	POST   /sessions/{id}/expanded/{nodeID}   expand a node
//	DELETE /sessions/{id}/expanded/{nodeID}   collapse a node
//	POST   /sessions/{id}/reset               clear the expansion set
//	GET    /sessions/{id}/graph               payload (?format=html|json, ?height=)
//	GET    /neighbours/{elementID}            one-hop neighbourhood as JSON
//	GET    /healthz                           liveness
//	GET    /metrics                           Prometheus metrics
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/graphscope/pkg/observability/prom"
	"github.com/matzehuels/graphscope/pkg/pipeline"
	"github.com/matzehuels/graphscope/pkg/session"
	"github.com/matzehuels/graphscope/pkg/store"
)

// Config wires the server's collaborators. Store, Sessions and Runner are
// required.
type Config struct {
	Store    store.Store
	Sessions session.Store
	Runner   *pipeline.Runner

	// Metrics enables /metrics and request instrumentation when set.
	Metrics *prom.Metrics
	Logger  *log.Logger

	// Defaults seed new sessions and renders.
	Defaults   pipeline.Options
	SessionTTL time.Duration
}

// Server serves the HTTP API.
type Server struct {
	store    store.Store
	sessions session.Store
	runner   *pipeline.Runner
	metrics  *prom.Metrics
	logger   *log.Logger
	defaults pipeline.Options
	ttl      time.Duration
}

// New creates a Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	defaults := cfg.Defaults
	defaults.Expanded = nil
	defaults.SetDefaults()
	// The runner supplies its own logger per render.
	defaults.Logger = nil

	return &Server{
		store:    cfg.Store,
		sessions: cfg.Sessions,
		runner:   cfg.Runner,
		metrics:  cfg.Metrics,
		logger:   logger,
		defaults: defaults,
		ttl:      ttl,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.recoverer)
	r.Use(s.logRequests)
	if s.metrics != nil {
		r.Use(s.instrument)
	}

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Patch("/", s.updateSession)
			r.Delete("/", s.deleteSession)
			r.Post("/expanded/{nodeID}", s.expand)
			r.Delete("/expanded/{nodeID}", s.collapse)
			r.Post("/reset", s.reset)
			r.Get("/graph", s.renderGraph)
		})
	})
	r.Get("/neighbours/{elementID}", s.neighbours)

	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully within shutdownTimeout.
func (s *Server) ListenAndServe(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
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
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
