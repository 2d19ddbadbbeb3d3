package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/clinicpulse/clinicpulse/internal/charts"
	"github.com/clinicpulse/clinicpulse/internal/metrics"
)

func (s *Server) handleSaveChart(w http.ResponseWriter, r *http.Request) {
	var chart charts.Chart
	if err := json.NewDecoder(r.Body).Decode(&chart); err != nil {
		writeBadRequest(w, "invalid chart configuration")
		return
	}
	writeJSON(w, http.StatusOK, s.charts.Save(chart))
}

func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.charts.List())
}

func (s *Server) handleGetChart(w http.ResponseWriter, r *http.Request) {
	chart, err := s.charts.Get(r.PathValue("chartID"))
	if errors.Is(err, charts.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errorDetail{Message: "Chart not found"}})
		return
	}
	writeJSON(w, http.StatusOK, chart)
}

func (s *Server) handleDeleteChart(w http.ResponseWriter, r *http.Request) {
	s.charts.Delete(r.PathValue("chartID"))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleChartData builds the SQL for a chart configuration and executes
// it on the warehouse, returning column-keyed rows for rendering.
func (s *Server) handleChartData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Config charts.Chart `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid chart configuration")
		return
	}

	query, err := charts.BuildQuery(req.Config)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	start := time.Now()
	rows, err := s.warehouse.ExecuteQuery(r.Context(), query)
	s.metrics.RecordTiming(metrics.OpChartData, time.Since(start))

	if err != nil {
		writeError(w, err, "failed to fetch chart data")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
