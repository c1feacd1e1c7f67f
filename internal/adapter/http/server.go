// Package http exposes the operational endpoints and the read-only
// analytics API. Analytics endpoints are stateless: callers post the
// report and hotspot lists to analyze, the persistence boundary stays
// external.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nakurusafety/incident-analytics/internal/analytics"
	"github.com/nakurusafety/incident-analytics/internal/domain"
	"github.com/nakurusafety/incident-analytics/internal/lang"
	"github.com/nakurusafety/incident-analytics/internal/scoring"
)

// maxBodyBytes caps analytics request bodies.
const maxBodyBytes = 4 << 20

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and analytics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	engine     *analytics.Engine
	settings   domain.SettingsProvider
	translator *lang.Translator
	region     string
	logger     *slog.Logger
}

// NewServer creates the HTTP server. The region label appears in
// recommendation messages. A nil translator disables the translation
// endpoint.
func NewServer(addr string, ready ReadinessChecker, settings domain.SettingsProvider, translator *lang.Translator, region string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine:     analytics.NewEngine(settings),
		settings:   settings,
		translator: translator,
		region:     region,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/v1/trends", s.handleTrends)
	mux.HandleFunc("POST /api/v1/density", s.handleDensity)
	mux.HandleFunc("POST /api/v1/clusters", s.handleClusters)
	mux.HandleFunc("POST /api/v1/anomalies", s.handleAnomalies)
	mux.HandleFunc("POST /api/v1/recommendations", s.handleRecommendations)
	mux.HandleFunc("POST /api/v1/translate", s.handleTranslate)

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

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type trendsRequest struct {
	Reports    []domain.Report `json:"reports"`
	WindowDays int             `json:"window_days"`
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	var req trendsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	window := req.WindowDays
	if window <= 0 {
		window = domain.SettingsOrDefault(r.Context(), s.settings).TrendWindowDays
	}
	writeJSON(w, http.StatusOK, analytics.AnalyzeTrends(req.Reports, window))
}

type densityRequest struct {
	Hotspots []domain.Hotspot `json:"hotspots"`
	Radius   float64          `json:"radius"`
}

func (s *Server) handleDensity(w http.ResponseWriter, r *http.Request) {
	var req densityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	settings := domain.SettingsOrDefault(r.Context(), s.settings)
	writeJSON(w, http.StatusOK, analytics.Densify(req.Hotspots, req.Radius, settings))
}

type clustersRequest struct {
	Hotspots          []domain.Hotspot `json:"hotspots"`
	DistanceThreshold float64          `json:"distance_threshold"`
}

func (s *Server) handleClusters(w http.ResponseWriter, r *http.Request) {
	var req clustersRequest
	if !decodeBody(w, r, &req) {
		return
	}
	threshold := req.DistanceThreshold
	if threshold <= 0 {
		threshold = analytics.DefaultDistanceThreshold
	}
	writeJSON(w, http.StatusOK, analytics.Cluster(req.Hotspots, threshold))
}

type anomaliesRequest struct {
	Reports []domain.Report `json:"reports"`
}

func (s *Server) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	var req anomaliesRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, scoring.DetectAnomalies(req.Reports))
}

type recommendationsRequest struct {
	Hotspots []domain.Hotspot `json:"hotspots"`
	Reports  []domain.Report  `json:"reports"`
	Region   string           `json:"region"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendationsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	region := req.Region
	if region == "" {
		region = s.region
	}
	writeJSON(w, http.StatusOK, s.engine.Recommend(r.Context(), req.Hotspots, req.Reports, region))
}

type translateRequest struct {
	Text           string            `json:"text"`
	Fields         map[string]string `json:"fields"`
	TargetLanguage string            `json:"target_language"`
}

type translateResponse struct {
	Text   string            `json:"text,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
}

// handleTranslate serves display-time translation of a single text or a
// report's field map. Untranslatable values come back unchanged.
func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if s.translator == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "translation is not configured"})
		return
	}

	var req translateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp := translateResponse{}
	if len(req.Fields) > 0 {
		resp.Fields = s.translator.TranslateFields(r.Context(), req.Fields, req.TargetLanguage)
	} else {
		text := s.translator.TranslateText(r.Context(), req.Text, req.TargetLanguage)
		if text == domain.TranslationUnavailable {
			text = req.Text
		}
		resp.Text = text
	}
	writeJSON(w, http.StatusOK, resp)
}

// decodeBody parses the JSON request body into dst, writing a 400 response
// and returning false on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
