package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/logidesk/backoffice/internal/core"
)

// DBTX is the database handle the store runs against.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// Postgres implements core.Store on a pgx connection pool.
type Postgres struct {
	db DBTX
}

// New creates a Postgres store around db.
func New(db DBTX) *Postgres {
	return &Postgres{db: db}
}

const ticketColumns = `id, ticket_id, COALESCE(spxtn, ''), created_time, driver_name, station,
	pnr_value, original_status, sla_deadline, internal_status, internal_notes,
	internal_status_updated_at, updated_at`

// scanTicket reads one ticket row in ticketColumns order.
func scanTicket(row pgx.Row) (core.Ticket, error) {
	var t core.Ticket
	err := row.Scan(
		&t.ID, &t.TicketID, &t.SPXTN, &t.CreatedTime, &t.DriverName, &t.Station,
		&t.PNRValue, &t.OriginalStatus, &t.SLADeadline, &t.InternalStatus,
		&t.InternalNotes, &t.InternalStatusUpdatedAt, &t.UpdatedAt,
	)
	return t, err
}

func collectTickets(rows pgx.Rows) ([]core.Ticket, error) {
	defer rows.Close()

	var tickets []core.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// SelectTickets executes a composed query: one COUNT round trip sharing the
// WHERE clause, then the ordered page.
func (p *Postgres) SelectTickets(ctx context.Context, q core.TicketQuery) ([]core.Ticket, int64, error) {
	wb := newWhereBuilder()
	for _, clause := range q.Clauses {
		wb.AddClause(clause)
	}
	whereClause, args := wb.Build()

	var count int64
	countQuery := "SELECT COUNT(*) FROM tickets" + whereClause
	if err := p.db.QueryRow(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf("SELECT %s FROM tickets%s%s LIMIT $%d OFFSET $%d",
		ticketColumns, whereClause, orderSQL(q.Order), argIndex, argIndex+1)
	args = append(args, q.Limit, q.Offset)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("select tickets: %w", err)
	}

	tickets, err := collectTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, count, nil
}

// TicketsByTicketIDs fetches tickets whose business key is in ids.
func (p *Postgres) TicketsByTicketIDs(ctx context.Context, ids []string) ([]core.Ticket, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := p.db.Query(ctx,
		fmt.Sprintf("SELECT %s FROM tickets WHERE ticket_id = ANY($1)", ticketColumns), ids)
	if err != nil {
		return nil, fmt.Errorf("tickets by id: %w", err)
	}
	return collectTickets(rows)
}

// TicketsBySPXTNs fetches tickets whose tracking code is in codes.
func (p *Postgres) TicketsBySPXTNs(ctx context.Context, codes []string) ([]core.Ticket, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	rows, err := p.db.Query(ctx,
		fmt.Sprintf("SELECT %s FROM tickets WHERE spxtn = ANY($1)", ticketColumns), codes)
	if err != nil {
		return nil, fmt.Errorf("tickets by tracking code: %w", err)
	}
	return collectTickets(rows)
}

// InsertTickets inserts a batch in one multi-row statement. Empty tracking
// codes are stored as NULL so the partial unique index holds.
func (p *Postgres) InsertTickets(ctx context.Context, tickets []core.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}

	const cols = 9
	placeholders := make([]string, 0, len(tickets))
	args := make([]any, 0, len(tickets)*cols)

	for i, t := range tickets {
		base := i * cols
		ph := make([]string, cols)
		for j := range ph {
			ph[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(ph, ", ")+")")

		var spxtn any
		if t.SPXTN != "" {
			spxtn = t.SPXTN
		}
		args = append(args,
			t.TicketID, spxtn, t.DriverName, t.Station, t.PNRValue,
			t.OriginalStatus, t.SLADeadline, t.InternalStatus, t.InternalNotes,
		)
	}

	query := `INSERT INTO tickets
		(ticket_id, spxtn, driver_name, station, pnr_value, original_status, sla_deadline, internal_status, internal_notes)
		VALUES ` + strings.Join(placeholders, ", ")

	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert tickets: %w", err)
	}
	return nil
}

// updatableColumns fixes the SET order for UpdateTicketFields, keeping
// generated SQL deterministic.
var updatableColumns = []string{
	core.ColSPXTN,
	core.ColDriverName,
	core.ColStation,
	core.ColPNRValue,
	core.ColOriginalStatus,
	core.ColSLADeadline,
	core.ColInternalStatus,
	core.ColInternalNotes,
	core.ColInternalStatusUpdatedAt,
	core.ColUpdatedAt,
}

// UpdateTicketFields writes only the columns present in fields; everything
// else stays untouched.
func (p *Postgres) UpdateTicketFields(ctx context.Context, ticketID string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}

	var sets []string
	var args []any
	argIndex := 1

	for _, col := range updatableColumns {
		value, ok := fields[col]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", quoteIdentifier(col), argIndex))
		args = append(args, value)
		argIndex++
	}
	if len(sets) == 0 {
		return fmt.Errorf("no updatable columns in payload")
	}

	query := fmt.Sprintf("UPDATE tickets SET %s WHERE ticket_id = $%d",
		strings.Join(sets, ", "), argIndex)
	args = append(args, ticketID)

	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update ticket %s: %w", ticketID, err)
	}
	return nil
}

// UpdateInternalStatusByIDs sets the internal status on every listed ticket.
func (p *Postgres) UpdateInternalStatusByIDs(ctx context.Context, ids []string, status string, changedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := p.db.Exec(ctx,
		`UPDATE tickets
		 SET internal_status = $1, internal_status_updated_at = $2, updated_at = $2
		 WHERE ticket_id = ANY($3)`,
		status, changedAt, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk status update: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertImportLog persists one audit record, returning the generated id.
func (p *Postgres) InsertImportLog(ctx context.Context, log *core.ImportLog) (int64, error) {
	details, err := json.Marshal(log.Details)
	if err != nil {
		return 0, fmt.Errorf("marshal import log details: %w", err)
	}

	var id int64
	err = p.db.QueryRow(ctx,
		`INSERT INTO import_logs
		 (import_date, imported_by, file_name, total_rows, new_records, updated_records, skipped_records, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		log.ImportDate, log.ImportedBy, log.FileName, log.TotalRows,
		log.NewRecords, log.UpdatedRecords, log.SkippedRecords, details,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert import log: %w", err)
	}
	return id, nil
}

// ListImportLogs returns one page of the audit history, newest first.
func (p *Postgres) ListImportLogs(ctx context.Context, offset, limit int) ([]core.ImportLog, int64, error) {
	var count int64
	if err := p.db.QueryRow(ctx, "SELECT COUNT(*) FROM import_logs").Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("count import logs: %w", err)
	}

	rows, err := p.db.Query(ctx,
		`SELECT id, import_date, imported_by, file_name, total_rows, new_records,
		        updated_records, skipped_records, details, created_at
		 FROM import_logs
		 ORDER BY import_date DESC, id DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list import logs: %w", err)
	}
	defer rows.Close()

	var logs []core.ImportLog
	for rows.Next() {
		var log core.ImportLog
		var details []byte
		if err := rows.Scan(
			&log.ID, &log.ImportDate, &log.ImportedBy, &log.FileName, &log.TotalRows,
			&log.NewRecords, &log.UpdatedRecords, &log.SkippedRecords, &details, &log.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan import log: %w", err)
		}
		if err := json.Unmarshal(details, &log.Details); err != nil {
			return nil, 0, fmt.Errorf("unmarshal import log %d details: %w", log.ID, err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return logs, count, nil
}

// StatsRows returns one range of the narrow stats projection.
func (p *Postgres) StatsRows(ctx context.Context, start, end *time.Time, offset, limit int) ([]core.StatsRow, error) {
	wb := newWhereBuilder()
	if start != nil {
		wb.AddClause(core.Where(core.Gte(core.ColCreatedTime, *start)))
	}
	if end != nil {
		wb.AddClause(core.Where(core.Lte(core.ColCreatedTime, *end)))
	}
	whereClause, args := wb.Build()

	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf(
		"SELECT pnr_value, internal_status, original_status, driver_name FROM tickets%s ORDER BY id LIMIT $%d OFFSET $%d",
		whereClause, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("stats rows: %w", err)
	}
	defer rows.Close()

	var result []core.StatsRow
	for rows.Next() {
		var row core.StatsRow
		if err := rows.Scan(&row.PNRValue, &row.InternalStatus, &row.OriginalStatus, &row.DriverName); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// DistinctDrivers returns the sorted distinct driver names.
func (p *Postgres) DistinctDrivers(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx,
		"SELECT DISTINCT driver_name FROM tickets WHERE driver_name <> '' ORDER BY driver_name")
	if err != nil {
		return nil, fmt.Errorf("distinct drivers: %w", err)
	}
	defer rows.Close()

	var drivers []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// DeleteAllTickets removes every ticket.
func (p *Postgres) DeleteAllTickets(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, "DELETE FROM tickets")
	if err != nil {
		return 0, fmt.Errorf("delete tickets: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAllImportLogs removes every import log.
func (p *Postgres) DeleteAllImportLogs(ctx context.Context) (int64, error) {
	tag, err := p.db.Exec(ctx, "DELETE FROM import_logs")
	if err != nil {
		return 0, fmt.Errorf("delete import logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
