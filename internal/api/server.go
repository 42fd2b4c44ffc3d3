// Package api exposes the HTTP read surface for game records.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/scoreline/scoreline/internal/events"
	"github.com/scoreline/scoreline/internal/merge"
	"github.com/scoreline/scoreline/internal/metrics"
	"github.com/scoreline/scoreline/internal/scoreboard"
	"github.com/scoreline/scoreline/internal/sync"
)

const defaultRequestTimeout = 60 * time.Second

// StatusSource reports sync-loop health alongside game data.
type StatusSource interface {
	Ready() bool
	Statuses() []sync.Status
	StatusFor(sport scoreboard.Sport) (sync.Status, bool)
}

// EventSource hands out filtered change-event subscriptions for streaming.
type EventSource interface {
	Subscribe(filter events.Filter) *events.Subscription
}

// Server wires HTTP handlers to the store, the sync loops, the hub, and the
// merge views that assemble the listing responses.
type Server struct {
	router chi.Router
	store  scoreboard.GameStore
	status StatusSource
	hub    EventSource
	views  *merge.Manager
	clock  scoreboard.Clock
	logger *zap.Logger
}

// NewServer constructs a Server with middleware and routes. views may be nil,
// in which case listings read the store directly instead of going through a
// merge view.
func NewServer(
	store scoreboard.GameStore,
	status StatusSource,
	hub EventSource,
	views *merge.Manager,
	clock scoreboard.Clock,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:  store,
		status: status,
		hub:    hub,
		views:  views,
		clock:  clock,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoverMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.With(timeoutMiddleware(defaultRequestTimeout)).Get("/sports", s.listSports)
		r.Route("/sports/{sport}", func(r chi.Router) {
			r.With(timeoutMiddleware(defaultRequestTimeout)).Get("/games", s.listGames)
			r.With(timeoutMiddleware(defaultRequestTimeout)).Get("/games/{game_id}", s.getGame)
			// The SSE stream holds its connection open; no timeout handler.
			r.Get("/events", s.streamEvents)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	if s.status != nil && !s.status.Ready() {
		writeError(w, http.StatusServiceUnavailable, "sync loops have not completed a first pass")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		s.logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	})
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}
		metrics.ObserveHTTPRequest(r.Method, routePattern, ww.status, time.Since(start))
	})
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

type requestIDKey struct{}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
