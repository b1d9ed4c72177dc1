// Package http exposes the service's operational surface: health and
// readiness probes, Prometheus metrics, manual ingestion triggers, and a
// small read API the web dashboard polls.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roadwatch/incident-etl/internal/ingest"
	"github.com/roadwatch/incident-etl/internal/store"
)

// Ingestor triggers on-demand ingestion cycles and reports readiness.
// *ingest.Runner satisfies it.
type Ingestor interface {
	CheckReadiness(ctx context.Context) error
	TriggerIngest(ctx context.Context, provider string) (ingest.Result, error)
}

// RoadIngestor refreshes the roadway inventory. Nil when no configured
// provider publishes one.
type RoadIngestor interface {
	IngestRoads(ctx context.Context) (int, error)
}

// IncidentReader is the query surface backing the read endpoints.
type IncidentReader interface {
	ActiveCount(ctx context.Context) (int, error)
	Latest(ctx context.Context, limit int) ([]store.StoredIncident, error)
}

// Server exposes the HTTP endpoints.
type Server struct {
	httpServer *http.Server
	ingestor   Ingestor
	roads      RoadIngestor
	reader     IncidentReader
	logger     *slog.Logger
}

// NewServer wires the routes. roads may be nil; the roads endpoint then
// answers 404.
func NewServer(addr string, ingestor Ingestor, roads RoadIngestor, reader IncidentReader, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ingestor: ingestor,
		roads:    roads,
		reader:   reader,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /ingest/{provider}", s.handleIngest)
	mux.HandleFunc("POST /ingest/ohgo/roads", s.handleRoads)
	mux.HandleFunc("GET /incidents/active_count", s.handleActiveCount)
	mux.HandleFunc("GET /incidents/latest", s.handleLatest)

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

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.ingestor.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")

	res, err := s.ingestor.TriggerIngest(r.Context(), provider)
	if err != nil {
		if errors.Is(err, ingest.ErrUnknownProvider) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		s.logger.Error("manual ingest failed", "provider", provider, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	if r.URL.Query().Get("detail") == "true" {
		writeJSON(w, http.StatusOK, res)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"processed": res.Processed()})
}

func (s *Server) handleRoads(w http.ResponseWriter, r *http.Request) {
	if s.roads == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no roads provider configured"})
		return
	}
	n, err := s.roads.IngestRoads(r.Context())
	if err != nil {
		s.logger.Error("roads ingest failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"ingested": n})
}

func (s *Server) handleActiveCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.reader.ActiveCount(r.Context())
	if err != nil {
		s.logger.Error("active count query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"active_count": n})
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	rows, err := s.reader.Latest(r.Context(), limit)
	if err != nil {
		s.logger.Error("latest query failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	items := make([]any, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.Incident)
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(items), "items": items})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
