package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aristath/quantbench/internal/harness"
	"github.com/aristath/quantbench/internal/modules/report"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": Version,
		"service": "quantbench",
	}

	if err := s.history.Ping(r.Context()); err != nil {
		s.log.Error().Err(err).Msg("Run history failed health check")
		response["status"] = "degraded"
		s.writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleTriggerRun handles POST /api/runs. The run executes in the background;
// progress is observable on /api/runs/stream.
func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.TriggerRun(); err != nil {
		if errors.Is(err, harness.ErrRunInFlight) {
			s.writeError(w, http.StatusConflict, "a benchmark run is already in flight")
			return
		}
		s.log.Error().Err(err).Msg("Failed to trigger benchmark run")
		s.writeError(w, http.StatusInternalServerError, "failed to trigger benchmark run")
		return
	}

	s.log.Info().Msg("Benchmark run triggered via API")
	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "accepted",
	})
}

// handleListRuns handles GET /api/runs
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = parsed
	}

	runs, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list runs")
		s.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":    runs,
		"count":   len(runs),
		"running": s.runner.Running(),
	})
}

// handleLatestRun handles GET /api/runs/latest
func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.history.Latest(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load latest run")
		s.writeError(w, http.StatusInternalServerError, "failed to load latest run")
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "no runs recorded yet")
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

// handleGetRun handles GET /api/runs/{runID}
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	run, err := s.history.Get(r.Context(), runID)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", runID).Msg("Failed to load run")
		s.writeError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}

	s.writeJSON(w, http.StatusOK, run)
}

// handleReport handles GET /api/report, serving the latest markdown report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.cfg.OutputDir, report.ReportFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.writeError(w, http.StatusNotFound, "no report generated yet")
			return
		}
		s.log.Error().Err(err).Str("path", path).Msg("Failed to read report")
		s.writeError(w, http.StatusInternalServerError, "failed to read report")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to write report response")
	}
}

// handleListCharts handles GET /api/charts
func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	names, err := s.charts.List(filepath.Join(s.cfg.OutputDir, report.ChartsDir))
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list charts")
		s.writeError(w, http.StatusInternalServerError, "failed to list charts")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"charts": names,
		"count":  len(names),
	})
}

// handleGetChart handles GET /api/charts/{name}
func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	chart, err := s.charts.Load(filepath.Join(s.cfg.OutputDir, report.ChartsDir), name)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "chart not found")
		return
	}

	s.writeJSON(w, http.StatusOK, chart)
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error": message,
	})
}
