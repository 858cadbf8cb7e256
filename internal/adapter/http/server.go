// Package http exposes the replay engine to the rendering collaborator:
// snapshot and control endpoints, health and metrics routes, and a WebSocket
// stream of evaluation results.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
	"github.com/couchcryptid/risk-replay-dashboard/internal/replay"
	"github.com/couchcryptid/risk-replay-dashboard/internal/store"
)

// Controller is the session surface the API needs. Implemented by
// replay.Session.
type Controller interface {
	CheckReadiness(ctx context.Context) error
	Snapshot(ctx context.Context) (replay.Snapshot, error)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Reset(ctx context.Context) error
	FastForward(ctx context.Context, minutes int) error
	Inject(ctx context.Context, region string, magnitude float64, durationMinutes int) (domain.Injection, error)
	Append(ctx context.Context, batch []domain.Event) (int, error)
	SetScoring(ctx context.Context, upd replay.ScoringUpdate) error
	SetGranularity(ctx context.Context, g store.Granularity) error
}

// Server exposes the dashboard HTTP API.
type Server struct {
	httpServer *http.Server
	controller Controller
	hub        *Hub
	logger     *slog.Logger
}

// NewServer creates the HTTP server. hub may be nil when streaming is not
// wanted (tests).
func NewServer(addr string, controller Controller, hub *Hub, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		controller: controller,
		hub:        hub,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /api/replay/start", s.handleStart)
	mux.HandleFunc("POST /api/replay/stop", s.handleStop)
	mux.HandleFunc("POST /api/replay/reset", s.handleReset)
	mux.HandleFunc("POST /api/replay/forward", s.handleForward)
	mux.HandleFunc("POST /api/replay/granularity", s.handleGranularity)
	mux.HandleFunc("POST /api/inject", s.handleInject)
	mux.HandleFunc("POST /api/events", s.handleAppend)
	mux.HandleFunc("PUT /api/scoring", s.handleScoring)
	mux.HandleFunc("GET /api/recommendations/export", s.handleExport)
	if hub != nil {
		mux.HandleFunc("GET /api/stream", hub.handleStream)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hub != nil {
		s.hub.Close()
	}
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.controller.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.controller.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.controller.Start)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.controller.Stop)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.control(w, r, s.controller.Reset)
}

func (s *Server) control(w http.ResponseWriter, r *http.Request, op func(context.Context) error) {
	if err := op(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondWithSnapshot(w, r)
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Minutes int `json:"minutes"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Minutes <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "minutes must be positive"})
		return
	}
	if err := s.controller.FastForward(r.Context(), req.Minutes); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondWithSnapshot(w, r)
}

func (s *Server) handleGranularity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Granularity string `json:"granularity"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	g, err := store.ParseGranularity(req.Granularity)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := s.controller.SetGranularity(r.Context(), g); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondWithSnapshot(w, r)
}

func (s *Server) handleInject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Region          string  `json:"region"`
		Magnitude       float64 `json:"magnitude"`
		DurationMinutes int     `json:"duration_minutes"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Region == "" || req.DurationMinutes <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "region and positive duration_minutes are required"})
		return
	}

	inj, err := s.controller.Inject(r.Context(), req.Region, req.Magnitude, req.DurationMinutes)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inj)
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	var batch []domain.Event
	if !decodeBody(w, r, &batch) {
		return
	}
	if len(batch) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "batch must not be empty"})
		return
	}

	merged, err := s.controller.Append(r.Context(), batch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"merged": merged})
}

func (s *Server) handleScoring(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Weights            *domain.Weights `json:"weights"`
		WindowMinutes      *int            `json:"window_minutes"`
		CompositeThreshold *float64        `json:"composite_threshold"`
		RiskThreshold      *float64        `json:"risk_threshold"`
		AlertLimit         *int            `json:"alert_limit"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	err := s.controller.SetScoring(r.Context(), replay.ScoringUpdate{
		Weights:            req.Weights,
		WindowMinutes:      req.WindowMinutes,
		CompositeThreshold: req.CompositeThreshold,
		RiskThreshold:      req.RiskThreshold,
		AlertLimit:         req.AlertLimit,
	})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.respondWithSnapshot(w, r)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	snap, err := s.controller.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		if err := replay.ExportRecommendationsJSON(snap.Recommendations, w); err != nil {
			s.logger.Error("export recommendations json", "error", err)
		}
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="recommendations.csv"`)
		if err := replay.ExportRecommendationsCSV(snap.Recommendations, w); err != nil {
			s.logger.Error("export recommendations csv", "error", err)
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be csv or json"})
	}
}

func (s *Server) respondWithSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.controller.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrInvalidState) {
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
