package core

import (
	"context"
	"fmt"
	"log/slog"
)

// InternalUpdate is a manual edit of a ticket's operator-owned fields.
// Nil fields are left untouched.
type InternalUpdate struct {
	Status *string `json:"internal_status,omitempty"`
	Notes  *string `json:"internal_notes,omitempty"`
}

// UpdateTicketInternal applies a manual triage edit to one ticket. A status
// change also stamps internal_status_updated_at; a notes-only edit does not.
func (s *Service) UpdateTicketInternal(ctx context.Context, ticketID string, update InternalUpdate) error {
	if ticketID == "" {
		return fmt.Errorf("ticket id is required")
	}
	if update.Status == nil && update.Notes == nil {
		return fmt.Errorf("nothing to update")
	}

	fields := make(map[string]any, 3)
	if update.Status != nil {
		if !ValidInternalStatus(*update.Status) {
			return fmt.Errorf("invalid internal status %q", *update.Status)
		}
		fields[ColInternalStatus] = *update.Status
		fields[ColInternalStatusUpdatedAt] = s.now()
	}
	if update.Notes != nil {
		fields[ColInternalNotes] = *update.Notes
	}

	if err := s.store.UpdateTicketFields(ctx, ticketID, fields); err != nil {
		return fmt.Errorf("update ticket %s: %w", ticketID, err)
	}
	return nil
}

// CodeLookup is the result of resolving tracking codes to tickets.
type CodeLookup struct {
	FoundTickets  []Ticket `json:"foundTickets"`
	NotFoundCodes []string `json:"notFoundCodes"`
}

// LookupByTrackingCodes resolves a pasted code list to stored tickets,
// matching each code against either key, and reports the codes with no match.
func (s *Service) LookupByTrackingCodes(ctx context.Context, codes []string) (*CodeLookup, error) {
	if len(codes) == 0 {
		return &CodeLookup{NotFoundCodes: []string{}}, nil
	}

	var digitCodes []string
	for _, c := range codes {
		if isDigits(c) {
			digitCodes = append(digitCodes, c)
		}
	}

	found, err := s.FetchExistingByKeys(ctx, digitCodes, codes, s.opts.FetchChunkSize, nil)
	if err != nil {
		return nil, err
	}

	matched := make(map[string]bool, len(found)*2)
	for _, t := range found {
		matched[t.TicketID] = true
		if t.SPXTN != "" {
			matched[t.SPXTN] = true
		}
	}

	notFound := make([]string, 0, len(codes))
	for _, code := range codes {
		if !matched[code] {
			notFound = append(notFound, code)
		}
	}

	return &CodeLookup{FoundTickets: found, NotFoundCodes: notFound}, nil
}

// BulkUpdateStatus sets the internal status on every listed ticket in one
// statement, stamping the status-change timestamp.
func (s *Service) BulkUpdateStatus(ctx context.Context, ticketIDs []string, status string) (int64, error) {
	if len(ticketIDs) == 0 {
		return 0, fmt.Errorf("no tickets selected")
	}
	if !ValidInternalStatus(status) {
		return 0, fmt.Errorf("invalid internal status %q", status)
	}

	affected, err := s.store.UpdateInternalStatusByIDs(ctx, ticketIDs, status, s.now())
	if err != nil {
		return 0, fmt.Errorf("bulk status update: %w", err)
	}

	slog.Info("bulk status update", "tickets", len(ticketIDs), "status", status, "affected", affected)
	return affected, nil
}

// ClearConfirmPhrase must be supplied verbatim before ClearAllData runs.
const ClearConfirmPhrase = "ZERAR"

// ClearAllData deletes every ticket and every import log, reporting progress
// between the two phases. The confirmation phrase guards against accidental
// calls; everything else about the operation is unceremonious.
func (s *Service) ClearAllData(ctx context.Context, confirm string, onProgress func(ClearProgress)) *ClearResult {
	if confirm != ClearConfirmPhrase {
		return &ClearResult{Error: fmt.Sprintf("confirmation phrase mismatch (expected %q)", ClearConfirmPhrase)}
	}

	progress := func(p ClearProgress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	progress(ClearProgress{Stage: "tickets"})
	deletedTickets, err := s.store.DeleteAllTickets(ctx)
	if err != nil {
		return &ClearResult{Error: fmt.Sprintf("delete tickets: %v", err)}
	}

	progress(ClearProgress{Stage: "logs", DeletedTickets: deletedTickets})
	deletedLogs, err := s.store.DeleteAllImportLogs(ctx)
	if err != nil {
		return &ClearResult{
			DeletedTickets: deletedTickets,
			Error:          fmt.Sprintf("delete import logs: %v", err),
		}
	}

	progress(ClearProgress{Stage: "done", DeletedTickets: deletedTickets, DeletedLogs: deletedLogs})
	slog.Warn("database cleared", "tickets", deletedTickets, "logs", deletedLogs)

	return &ClearResult{Success: true, DeletedTickets: deletedTickets, DeletedLogs: deletedLogs}
}
