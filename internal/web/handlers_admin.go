package web

// handlers_admin.go contains the dashboard, reporting, and destructive
// admin endpoints.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/logidesk/backoffice/internal/logging"
)

// parseTimeParam parses an optional RFC 3339 or date-only query parameter.
func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, val); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s: %q", name, val)
}

// handleStats serves the dashboard aggregates for an optional period.
//
// Query parameters: start, end (RFC 3339 or YYYY-MM-DD, both optional).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeParam(r, "start")
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	stats, err := s.service.DashboardStats(r.Context(), start, end)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// handleReport serves the full ticket dataset of a period with its KPIs.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeParam(r, "start")
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}
	end, err := parseTimeParam(r, "end")
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	report, err := s.service.GenerateReport(r.Context(), start, end)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// clearRequest carries the typed confirmation phrase.
type clearRequest struct {
	Confirm string `json:"confirm"`
}

// handleClear wipes all tickets and import logs. The request must carry the
// exact confirmation phrase or nothing is deleted.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req clearRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	result := s.service.ClearAllData(r.Context(), req.Confirm, nil)
	if !result.Success {
		respondJSON(w, http.StatusBadRequest, result)
		return
	}

	logging.FromContext(r.Context()).Warn("database cleared",
		"tickets", result.DeletedTickets,
		"logs", result.DeletedLogs,
	)
	respondJSON(w, http.StatusOK, result)
}
