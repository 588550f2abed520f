package core

import (
	"context"
	"time"
)

// Column names of the tickets table, shared between the query builder and the
// store implementation.
const (
	ColTicketID                = "ticket_id"
	ColSPXTN                   = "spxtn"
	ColCreatedTime             = "created_time"
	ColDriverName              = "driver_name"
	ColStation                 = "station"
	ColPNRValue                = "pnr_value"
	ColOriginalStatus          = "original_status"
	ColSLADeadline             = "sla_deadline"
	ColInternalStatus          = "internal_status"
	ColInternalNotes           = "internal_notes"
	ColInternalStatusUpdatedAt = "internal_status_updated_at"
	ColUpdatedAt               = "updated_at"
)

// FilterOp is a comparison operator understood by the store.
type FilterOp string

const (
	OpEq    FilterOp = "eq"
	OpIn    FilterOp = "in"
	OpILike FilterOp = "ilike"
	OpGte   FilterOp = "gte"
	OpLte   FilterOp = "lte"
)

// Cond is a single column condition.
type Cond struct {
	Column string
	Op     FilterOp
	Value  any
}

// Clause is one AND-level term of a query: a single condition, or an OR group
// when Any holds more than one condition.
type Clause struct {
	Any []Cond
}

// Eq builds an equality condition.
func Eq(column string, value any) Cond { return Cond{Column: column, Op: OpEq, Value: value} }

// In builds a set-membership condition.
func In(column string, values []string) Cond {
	return Cond{Column: column, Op: OpIn, Value: values}
}

// ILike builds a case-insensitive pattern condition. The pattern carries its
// own wildcards.
func ILike(column, pattern string) Cond {
	return Cond{Column: column, Op: OpILike, Value: pattern}
}

// Gte builds a >= condition.
func Gte(column string, value any) Cond { return Cond{Column: column, Op: OpGte, Value: value} }

// Lte builds a <= condition.
func Lte(column string, value any) Cond { return Cond{Column: column, Op: OpLte, Value: value} }

// Where wraps a single condition into a clause.
func Where(c Cond) Clause { return Clause{Any: []Cond{c}} }

// AnyOf wraps conditions into an OR clause.
func AnyOf(conds ...Cond) Clause { return Clause{Any: conds} }

// OrderBy selects the result ordering of a ticket query.
type OrderBy struct {
	Column     string
	Descending bool
	NullsLast  bool
}

// TicketQuery is a composed select against the tickets table: clauses are
// ANDed, Order applies before the Offset/Limit range, and the store returns
// the exact total matching count alongside the page.
type TicketQuery struct {
	Clauses []Clause
	Order   OrderBy
	Offset  int
	Limit   int
}

// StatsRow is the column projection used by dashboard aggregation, kept
// narrow so stats batches stay cheap.
type StatsRow struct {
	PNRValue       float64
	InternalStatus string
	OriginalStatus string
	DriverName     string
}

// Store is the remote relational store contract the engine consumes.
// Implementations must return an error for any failed round trip; the core
// decides per operation whether that error is fatal or accumulated.
type Store interface {
	// SelectTickets executes a composed query and returns one page of
	// tickets plus the exact total matching count.
	SelectTickets(ctx context.Context, q TicketQuery) ([]Ticket, int64, error)

	// TicketsByTicketIDs returns tickets whose business key is in ids.
	TicketsByTicketIDs(ctx context.Context, ids []string) ([]Ticket, error)

	// TicketsBySPXTNs returns tickets whose tracking code is in codes.
	TicketsBySPXTNs(ctx context.Context, codes []string) ([]Ticket, error)

	// InsertTickets inserts a batch of new tickets in one statement.
	InsertTickets(ctx context.Context, tickets []Ticket) error

	// UpdateTicketFields updates a single ticket by business key. Only the
	// columns present in fields are written; absent columns stay untouched.
	UpdateTicketFields(ctx context.Context, ticketID string, fields map[string]any) error

	// UpdateInternalStatusByIDs sets internal_status (and its change
	// timestamp) on every ticket in ids, returning the affected count.
	UpdateInternalStatusByIDs(ctx context.Context, ids []string, status string, changedAt time.Time) (int64, error)

	// InsertImportLog persists one import audit record and returns its id.
	InsertImportLog(ctx context.Context, log *ImportLog) (int64, error)

	// ListImportLogs returns one page of import logs, newest first, plus the
	// total count.
	ListImportLogs(ctx context.Context, offset, limit int) ([]ImportLog, int64, error)

	// StatsRows returns one range of the narrow stats projection, optionally
	// bounded by created_time.
	StatsRows(ctx context.Context, start, end *time.Time, offset, limit int) ([]StatsRow, error)

	// DistinctDrivers returns the sorted distinct driver names.
	DistinctDrivers(ctx context.Context) ([]string, error)

	// DeleteAllTickets removes every ticket, returning the deleted count.
	DeleteAllTickets(ctx context.Context) (int64, error)

	// DeleteAllImportLogs removes every import log, returning the deleted count.
	DeleteAllImportLogs(ctx context.Context) (int64, error)
}
