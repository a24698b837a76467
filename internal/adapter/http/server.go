// Package http serves health probes, Prometheus metrics and the derived
// event tables to chart renderers.
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-catalog/internal/domain"
	"github.com/couchcryptid/quake-catalog/internal/pipeline"
)

// Service answers readiness probes and builds derived tables.
type Service interface {
	sharedobs.ReadinessChecker
	Analyze(ctx context.Context, profile domain.Profile) (pipeline.Analysis, error)
}

// Server exposes health, readiness, metrics, and event table HTTP endpoints.
type Server struct {
	httpServer *http.Server
	svc        Service
	profiles   []domain.Profile
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics,
// /api/profiles and /api/events routes.
func NewServer(addr string, svc Service, profiles []domain.Profile, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc:      svc,
		profiles: profiles,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(svc))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/profiles", s.handleProfiles)
	mux.HandleFunc("GET /api/events", s.handleEvents)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleProfiles(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"profiles": s.profiles})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("profile")
	if name == "" && len(s.profiles) > 0 {
		name = s.profiles[0].Name
	}
	profile, ok := s.lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown profile "+name)
		return
	}

	a, err := s.svc.Analyze(r.Context(), profile)
	switch {
	case errors.Is(err, domain.ErrNoCatalogFiles):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		s.logger.Error("analyze catalog failed", "profile", name, "error", err)
		writeError(w, http.StatusInternalServerError, "analyze catalog failed")
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, pipeline.NewTable(a))
}

func (s *Server) lookup(name string) (domain.Profile, bool) {
	for _, p := range s.profiles {
		if p.Name == name {
			return p, true
		}
	}
	return domain.Profile{}, false
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
