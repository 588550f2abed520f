// Package core implements the ticket import, reconciliation, and query logic.
// This package has no HTTP or UI dependencies and talks to the backing store
// only through the Store interface.
package core

import (
	"time"
)

// Internal status values an operator can assign to a ticket.
const (
	StatusPendente  = "Pendente"
	StatusEmAnalise = "Em Análise"
	StatusConcluido = "Concluído"
)

// InternalStatuses lists the valid operator-assigned statuses.
var InternalStatuses = []string{StatusPendente, StatusEmAnalise, StatusConcluido}

// ValidInternalStatus reports whether s is an accepted internal status.
func ValidInternalStatus(s string) bool {
	for _, v := range InternalStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Ticket is the canonical delivery record.
//
// TicketID is the stable business key. SPXTN is the optional secondary
// tracking code, unique when present. The internal_* fields are operator-owned
// and must survive re-imports untouched.
type Ticket struct {
	ID                      int64      `json:"id,omitempty"`
	TicketID                string     `json:"ticket_id"`
	SPXTN                   string     `json:"spxtn,omitempty"`
	CreatedTime             *time.Time `json:"created_time,omitempty"`
	DriverName              string     `json:"driver_name"`
	Station                 string     `json:"station"`
	PNRValue                float64    `json:"pnr_value"`
	OriginalStatus          string     `json:"original_status"`
	SLADeadline             *time.Time `json:"sla_deadline,omitempty"`
	InternalStatus          string     `json:"internal_status"`
	InternalNotes           string     `json:"internal_notes"`
	InternalStatusUpdatedAt *time.Time `json:"internal_status_updated_at,omitempty"`
	UpdatedAt               *time.Time `json:"updated_at,omitempty"`
}

// ImportOperation classifies one CSV row against the store.
type ImportOperation string

const (
	OpCreate ImportOperation = "create"
	OpUpdate ImportOperation = "update"
	OpSkip   ImportOperation = "skip"
)

// FieldChange records one differing operational field between an existing
// ticket and its incoming candidate.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"oldValue"`
	NewValue string `json:"newValue"`
}

// ImportPreviewItem is the classification of a single candidate row.
// Existing is set only for updates.
type ImportPreviewItem struct {
	Ticket    Ticket          `json:"ticket"`
	Operation ImportOperation `json:"operation"`
	Changes   []FieldChange   `json:"changes,omitempty"`
	Error     string          `json:"error,omitempty"`
	Existing  *Ticket         `json:"existingTicket,omitempty"`
}

// ImportSummary tallies an analysis run.
type ImportSummary struct {
	Total    int `json:"total"`
	ToCreate int `json:"toCreate"`
	ToUpdate int `json:"toUpdate"`
	ToSkip   int `json:"toSkip"`
}

// ImportAnalysis is the result of classifying a full CSV batch.
type ImportAnalysis struct {
	Previews []ImportPreviewItem `json:"previews"`
	Summary  ImportSummary       `json:"summary"`
}

// ImportResult is the outcome of committing a previewed import.
// Counts for successful rows remain valid even when Success is false.
type ImportResult struct {
	Success        bool     `json:"success"`
	TotalProcessed int      `json:"totalProcessed"`
	NewRecords     int      `json:"newRecords"`
	UpdatedRecords int      `json:"updatedRecords"`
	SkippedRecords int      `json:"skippedRecords"`
	Errors         []string `json:"errors"`
	LogID          int64    `json:"logId,omitempty"`
}

// ImportLogItem is the per-row detail persisted with an import log.
type ImportLogItem struct {
	TicketID  string          `json:"ticket_id"`
	Operation ImportOperation `json:"operation"`
	Changes   []FieldChange   `json:"changes,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// ImportLogDetails is the structured payload of an ImportLog.
type ImportLogDetails struct {
	Items  []ImportLogItem `json:"items"`
	Errors []string        `json:"errors"`
}

// ImportLog is the persisted audit record of one import attempt.
// Created once per attempt, including partially failed ones; never mutated.
type ImportLog struct {
	ID             int64            `json:"id"`
	ImportDate     time.Time        `json:"import_date"`
	ImportedBy     string           `json:"imported_by"`
	FileName       string           `json:"file_name"`
	TotalRows      int              `json:"total_rows"`
	NewRecords     int              `json:"new_records"`
	UpdatedRecords int              `json:"updated_records"`
	SkippedRecords int              `json:"skipped_records"`
	Details        ImportLogDetails `json:"details"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ColumnFilters holds the per-column filter inputs from the ticket table.
// All fields are optional; empty means no filter on that column.
type ColumnFilters struct {
	Tracking string `json:"tracking,omitempty"`
	Driver   string `json:"driver,omitempty"`
	Value    string `json:"value,omitempty"`
	Status   string `json:"status,omitempty"`
	Internal string `json:"internal,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// SearchResult reports which of a multi-code search's codes appeared on the
// returned page. Only meaningful within that single page.
type SearchResult struct {
	SearchedCodes []string `json:"searchedCodes"`
	FoundCodes    []string `json:"foundCodes"`
	NotFoundCodes []string `json:"notFoundCodes"`
}

// TicketPage is one page of tickets plus the total matching count.
type TicketPage struct {
	Data         []Ticket      `json:"data"`
	Count        int64         `json:"count"`
	SearchResult *SearchResult `json:"searchResult,omitempty"`
}

// ProgressStage tags which phase a progress event belongs to.
type ProgressStage string

const (
	StageFetchByID    ProgressStage = "fetch_by_id"
	StageFetchBySPXTN ProgressStage = "fetch_by_spxtn"
	StageAnalyze      ProgressStage = "analyze"
	StageInsert       ProgressStage = "insert"
	StageUpdate       ProgressStage = "update"
	StageClear        ProgressStage = "clear"
)

// Progress describes one chunk boundary during a batched operation.
// Chunk is 1-based and continuous across phases of the same run.
type Progress struct {
	Stage       ProgressStage `json:"stage"`
	Chunk       int           `json:"chunk"`
	TotalChunks int           `json:"totalChunks"`
	ItemsDone   int           `json:"itemsDone"`
	ItemsTotal  int           `json:"itemsTotal"`
	Message     string        `json:"message"`
}

// ProgressFunc receives progress events. Callbacks are invoked inline between
// chunks; a nil function is always safe to pass.
type ProgressFunc func(Progress)

func notify(fn ProgressFunc, p Progress) {
	if fn != nil {
		fn(p)
	}
}

// KpiStats are the dashboard headline numbers.
type KpiStats struct {
	TotalTickets int     `json:"totalTickets"`
	TotalValue   float64 `json:"totalValue"`
	PendingCount int     `json:"pendingCount"`
}

// DistEntry is one slice of a distribution chart.
type DistEntry struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// DashboardStats aggregates the overview numbers.
type DashboardStats struct {
	Kpis       KpiStats    `json:"kpis"`
	StatusDist []DistEntry `json:"statusDist"`
	DriverDist []DistEntry `json:"driverDist"`
}

// ClearProgress reports the stages of a clear-database run.
type ClearProgress struct {
	Stage          string `json:"stage"`
	DeletedTickets int64  `json:"deletedTickets"`
	DeletedLogs    int64  `json:"deletedLogs"`
}

// ClearResult is the outcome of a clear-database run.
type ClearResult struct {
	Success        bool   `json:"success"`
	DeletedTickets int64  `json:"deletedTickets"`
	DeletedLogs    int64  `json:"deletedLogs"`
	Error          string `json:"error,omitempty"`
}
