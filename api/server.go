// Package api exposes the analysis pipeline over HTTP. Handlers decode
// JSON requests, call into the trust, scoring and ai packages, and
// answer with JSON envelopes; errors that mean degraded evidence rather
// than a broken request still answer 200 with the degraded assessment.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"threat-analysis-service/ai"
	"threat-analysis-service/scoring"
	"threat-analysis-service/stats"
	"threat-analysis-service/trust"
	"threat-analysis-service/whitelist"
)

// Server holds the wired analysis components. Construct it with a
// struct literal and call Routes to get the handler.
type Server struct {
	Classifier *trust.Classifier
	Scorer     *scoring.Scorer
	Analyzer   *ai.Analyzer // nil disables content analysis
	Whitelist  whitelist.Store
	Stats      *stats.Store
	Jobs       *stats.JobStore

	// StoreKind names the whitelist backing store for /health.
	StoreKind string

	// BatchConcurrency caps batch fan-out when the request does not
	// ask for a specific level. Zero means the package defaults.
	BatchConcurrency int

	log *slog.Logger
}

// Routes builds the router with the full middleware stack.
func (s *Server) Routes() chi.Router {
	s.log = slog.Default().With("component", "api")

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	// Generous because a single assess call may wait on whois, a TLS
	// handshake and a Gemini round trip.
	r.Use(middleware.Timeout(90 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/classify", s.handleClassify)
		r.Post("/classify/batch", s.handleClassifyBatch)
		r.Post("/assess", s.handleAssess)

		r.Route("/score", func(r chi.Router) {
			r.Post("/", s.handleScore)
			r.Post("/batch", s.handleScoreBatch)
			r.Get("/statistics", s.handleStatistics)
			r.Get("/config", s.handleScoreConfig)
			r.Get("/summary", s.handleSummary)
		})

		r.Route("/whitelist", func(r chi.Router) {
			r.Get("/", s.handleWhitelistList)
			r.Post("/", s.handleWhitelistAdd)
			r.Get("/{id}", s.handleWhitelistGet)
			r.Delete("/{id}", s.handleWhitelistRemove)
		})
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	analyzerState := "disabled"
	if s.Analyzer != nil {
		analyzerState = "enabled"
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"service": "threat-analysis-service",
		"status":  "healthy",
		"components": map[string]any{
			"classifier":  "ok",
			"scorer":      "ok",
			"whitelist":   s.StoreKind,
			"ai_analyzer": analyzerState,
			"jobs_active": s.Jobs.Len(),
		},
		"timestamp": time.Now().UTC(),
	})
}
