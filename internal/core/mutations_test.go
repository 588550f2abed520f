package core

import (
	"context"
	"fmt"
	"testing"
)

func strptr(s string) *string { return &s }

func TestUpdateTicketInternal_StatusChangeStampsTimestamp(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	err := svc.UpdateTicketInternal(context.Background(), "100", InternalUpdate{
		Status: strptr(StatusConcluido),
	})
	if err != nil {
		t.Fatalf("UpdateTicketInternal() error = %v", err)
	}

	fields := store.fieldUpdates[0].Fields
	if fields[ColInternalStatus] != StatusConcluido {
		t.Errorf("status = %v, want %q", fields[ColInternalStatus], StatusConcluido)
	}
	if _, ok := fields[ColInternalStatusUpdatedAt]; !ok {
		t.Error("status change must stamp internal_status_updated_at")
	}
}

func TestUpdateTicketInternal_NotesOnlyNoStamp(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	err := svc.UpdateTicketInternal(context.Background(), "100", InternalUpdate{
		Notes: strptr("ligar amanhã"),
	})
	if err != nil {
		t.Fatalf("UpdateTicketInternal() error = %v", err)
	}

	fields := store.fieldUpdates[0].Fields
	if fields[ColInternalNotes] != "ligar amanhã" {
		t.Errorf("notes = %v", fields[ColInternalNotes])
	}
	if _, ok := fields[ColInternalStatusUpdatedAt]; ok {
		t.Error("notes-only edit must not stamp the status timestamp")
	}
	if _, ok := fields[ColInternalStatus]; ok {
		t.Error("notes-only edit must not touch the status")
	}
}

func TestUpdateTicketInternal_Validation(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	if err := svc.UpdateTicketInternal(context.Background(), "", InternalUpdate{Notes: strptr("x")}); err == nil {
		t.Error("expected error for empty ticket id")
	}
	if err := svc.UpdateTicketInternal(context.Background(), "1", InternalUpdate{}); err == nil {
		t.Error("expected error for empty update")
	}
	if err := svc.UpdateTicketInternal(context.Background(), "1", InternalUpdate{Status: strptr("Feito")}); err == nil {
		t.Error("expected error for unknown status")
	}
	if len(store.fieldUpdates) != 0 {
		t.Errorf("no store writes expected, got %d", len(store.fieldUpdates))
	}
}

func TestLookupByTrackingCodes(t *testing.T) {
	store := &fakeStore{
		tickets: []Ticket{
			{TicketID: "100", SPXTN: "BR100"},
			{TicketID: "200", SPXTN: ""},
		},
	}
	svc := newTestService(store, Options{})

	lookup, err := svc.LookupByTrackingCodes(context.Background(), []string{"BR100", "200", "BR404"})
	if err != nil {
		t.Fatalf("LookupByTrackingCodes() error = %v", err)
	}

	if len(lookup.FoundTickets) != 2 {
		t.Fatalf("FoundTickets = %d, want 2", len(lookup.FoundTickets))
	}
	if len(lookup.NotFoundCodes) != 1 || lookup.NotFoundCodes[0] != "BR404" {
		t.Errorf("NotFoundCodes = %v, want [BR404]", lookup.NotFoundCodes)
	}

	// Digit codes go through the business key lookup as well.
	if len(store.idQueries) != 1 || store.idQueries[0][0] != "200" {
		t.Errorf("id queries = %v, want [[200]]", store.idQueries)
	}
}

func TestLookupByTrackingCodes_Empty(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	lookup, err := svc.LookupByTrackingCodes(context.Background(), nil)
	if err != nil {
		t.Fatalf("LookupByTrackingCodes() error = %v", err)
	}
	if len(lookup.FoundTickets) != 0 || len(lookup.NotFoundCodes) != 0 {
		t.Errorf("expected empty lookup, got %+v", lookup)
	}
	if len(store.idQueries)+len(store.tnQueries) != 0 {
		t.Error("no store calls expected for empty input")
	}
}

func TestBulkUpdateStatus(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	affected, err := svc.BulkUpdateStatus(context.Background(), []string{"1", "2", "3"}, StatusEmAnalise)
	if err != nil {
		t.Fatalf("BulkUpdateStatus() error = %v", err)
	}
	if affected != 3 {
		t.Errorf("affected = %d, want 3", affected)
	}
	if store.bulkStatus[0] != StatusEmAnalise {
		t.Errorf("status = %q", store.bulkStatus[0])
	}
}

func TestBulkUpdateStatus_Validation(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	if _, err := svc.BulkUpdateStatus(context.Background(), nil, StatusPendente); err == nil {
		t.Error("expected error for empty selection")
	}
	if _, err := svc.BulkUpdateStatus(context.Background(), []string{"1"}, "Qualquer"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestClearAllData_RequiresConfirmation(t *testing.T) {
	store := &fakeStore{tickets: []Ticket{{TicketID: "1"}}}
	svc := newTestService(store, Options{})

	result := svc.ClearAllData(context.Background(), "zerar", nil)
	if result.Success {
		t.Error("wrong phrase must not clear anything")
	}
	if len(store.tickets) != 1 {
		t.Error("tickets were deleted despite failed confirmation")
	}
}

func TestClearAllData_DeletesBothTables(t *testing.T) {
	store := &fakeStore{
		tickets: []Ticket{{TicketID: "1"}, {TicketID: "2"}},
		logs:    []ImportLog{{ID: 1}},
	}
	svc := newTestService(store, Options{})

	var stages []string
	result := svc.ClearAllData(context.Background(), ClearConfirmPhrase, func(p ClearProgress) {
		stages = append(stages, p.Stage)
	})

	if !result.Success {
		t.Fatalf("ClearAllData failed: %s", result.Error)
	}
	if result.DeletedTickets != 2 || result.DeletedLogs != 1 {
		t.Errorf("deleted = %d tickets, %d logs; want 2, 1", result.DeletedTickets, result.DeletedLogs)
	}
	if len(stages) != 3 || stages[0] != "tickets" || stages[1] != "logs" || stages[2] != "done" {
		t.Errorf("stages = %v", stages)
	}
}

func TestClearAllData_TicketDeleteFailure(t *testing.T) {
	store := &fakeStore{delTicketErr: fmt.Errorf("permission denied")}
	svc := newTestService(store, Options{})

	result := svc.ClearAllData(context.Background(), ClearConfirmPhrase, nil)
	if result.Success {
		t.Error("expected failure")
	}
	if result.Error == "" {
		t.Error("expected error message")
	}
}
