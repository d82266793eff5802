// Package httpapi serves the MCP streamable HTTP transport alongside health
// and metrics endpoints.
package httpapi

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kokistudios/thinker/internal/observability"
	"github.com/kokistudios/thinker/internal/session"
	"github.com/kokistudios/thinker/internal/ui"
)

type Server struct {
	mcp      http.Handler
	sessions *session.Registry
	metrics  *observability.Metrics
	version  string
	draining atomic.Bool
}

// New builds the HTTP surface. mcpHandler serves /mcp; metrics may be nil.
func New(mcpHandler http.Handler, sessions *session.Registry, metrics *observability.Metrics, version string) *Server {
	return &Server{mcp: mcpHandler, sessions: sessions, metrics: metrics, version: version}
}

// Drain makes /readyz report unavailable while the server shuts down.
func (s *Server) Drain() {
	s.draining.Store(true)
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	r.Handle("/mcp", s.mcp)
	r.Handle("/mcp/*", s.mcp)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	if s.draining.Load() {
		respondJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "draining"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"sessions": s.sessions.Len(),
	})
}

// requestLogger logs each request at debug level through the shared logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			ui.Logger.Debug("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
