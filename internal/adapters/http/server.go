// Package http exposes the generation engine over a small hand-written
// HTTP surface: one generation endpoint, health, and Prometheus metrics.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/internal/runtime"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/dataset"
	"github.com/J3rome/CLEAR-AQA-Dataset-Generator/pkg/scene"
)

// Generator is the engine surface the server needs.
type Generator interface {
	Generate(ctx context.Context, scenes []*scene.Scene) ([]dataset.Record, *runtime.Report, error)
}

// Server handles generation requests.
type Server struct {
	generator Generator
	logger    *slog.Logger
}

// NewHandler builds the HTTP handler. The gatherer may be nil to disable
// the /metrics route.
func NewHandler(generator Generator, logger *slog.Logger, gatherer prometheus.Gatherer) http.Handler {
	s := &Server{generator: generator, logger: logger}

	r := chi.NewRouter()
	r.Get("/healthz", s.health)
	r.Post("/generate", s.generate)
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// generateResponse is the wire shape of a generation reply.
type generateResponse struct {
	Records []dataset.Record `json:"records"`
	Report  *runtime.Report  `json:"report"`
	Skipped []string         `json:"skipped,omitempty"`
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	scenes, bad, err := scene.Parse(r.Body)
	if err != nil {
		s.logger.Warn("generate: bad request", "err", err)
		http.Error(w, "invalid scene payload", http.StatusBadRequest)
		return
	}

	records, report, err := s.generator.Generate(r.Context(), scenes)
	if err != nil {
		s.logger.Error("generate failed", "err", err)
		http.Error(w, "generation failed", http.StatusInternalServerError)
		return
	}

	resp := generateResponse{Records: records, Report: report}
	for _, b := range bad {
		resp.Skipped = append(resp.Skipped, b.Error())
	}
	if resp.Records == nil {
		resp.Records = []dataset.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("generate: encode response", "err", err)
	}
}
