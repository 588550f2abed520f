package web

// handlers_tickets.go contains the ticket table and triage endpoints.

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/logidesk/backoffice/internal/core"
	"github.com/logidesk/backoffice/internal/logging"
)

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseColumnFilters extracts the per-column filters from filter[...] query
// parameters. Unknown filter keys are ignored.
func parseColumnFilters(r *http.Request) *core.ColumnFilters {
	q := r.URL.Query()
	f := &core.ColumnFilters{
		Tracking: q.Get("filter[tracking]"),
		Driver:   q.Get("filter[driver]"),
		Value:    q.Get("filter[value]"),
		Status:   q.Get("filter[status]"),
		Internal: q.Get("filter[internal]"),
		Notes:    q.Get("filter[notes]"),
	}
	if *f == (core.ColumnFilters{}) {
		return nil
	}
	return f
}

// handleListTickets serves one page of the ticket table.
//
// Query parameters: page, pageSize, search, sort, dir, and per-column
// filter[tracking], filter[driver], filter[value], filter[status],
// filter[internal], filter[notes].
func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	params := core.PageParams{
		Page:       parseIntParam(r, "page", 1),
		PageSize:   parseIntParam(r, "pageSize", 50),
		SearchTerm: r.URL.Query().Get("search"),
		Filters:    parseColumnFilters(r),
		SortBy:     r.URL.Query().Get("sort"),
		SortOrder:  r.URL.Query().Get("dir"),
	}

	page, err := s.service.FetchTicketsPage(r.Context(), params)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, page)
}

// handleUpdateInternal applies a manual triage edit to one ticket.
func (s *Server) handleUpdateInternal(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	var update core.InternalUpdate
	if err := decodeJSON(r, &update); err != nil {
		respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	if update.Status == nil && update.Notes == nil {
		respondError(w, r, fmt.Errorf("nothing to update"), http.StatusBadRequest)
		return
	}

	if err := s.service.UpdateTicketInternal(r.Context(), ticketID, update); err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	logging.FromContext(r.Context()).Info("ticket updated", "ticket_id", ticketID)
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// lookupRequest carries the raw multi-line tracking code input.
type lookupRequest struct {
	Codes string `json:"codes"`
}

// handleLookup resolves a pasted list of tracking codes against the store.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	codes := core.ParseTrackingCodes(req.Codes)
	if len(codes) == 0 {
		respondError(w, r, fmt.Errorf("no tracking codes provided"), http.StatusBadRequest)
		return
	}

	result, err := s.service.LookupByTrackingCodes(r.Context(), codes)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// bulkStatusRequest names the tickets and the status to apply to them.
type bulkStatusRequest struct {
	TicketIDs []string `json:"ticket_ids"`
	Status    string   `json:"status"`
}

// handleBulkStatus sets the internal status on a batch of tickets.
func (s *Server) handleBulkStatus(w http.ResponseWriter, r *http.Request) {
	var req bulkStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	if len(req.TicketIDs) == 0 {
		respondError(w, r, fmt.Errorf("no ticket ids provided"), http.StatusBadRequest)
		return
	}

	updated, err := s.service.BulkUpdateStatus(r.Context(), req.TicketIDs, req.Status)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

// handleListDrivers serves the distinct driver names for filter dropdowns.
func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	drivers, err := s.service.UniqueDrivers(r.Context())
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string][]string{"drivers": drivers})
}
