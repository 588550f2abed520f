package core

import (
	"context"
	"time"
)

// fieldUpdate records one UpdateTicketFields call.
type fieldUpdate struct {
	TicketID string
	Fields   map[string]any
}

// fakeStore is an in-memory Store that records every call for assertions.
// Error hooks let individual tests inject failures per operation.
type fakeStore struct {
	tickets []Ticket
	logs    []ImportLog
	drivers []string

	selectResult []Ticket
	selectCount  int64
	statsRows    []StatsRow

	idQueries     [][]string
	tnQueries     [][]string
	inserted      [][]Ticket
	fieldUpdates  []fieldUpdate
	selectQueries []TicketQuery
	bulkStatus    []string
	bulkIDs       [][]string
	insertedLogs  []*ImportLog

	selectErr    error
	fetchIDErr   error
	fetchTNErr   error
	insertErr    func(batch []Ticket) error
	updateErr    func(ticketID string) error
	logInsertErr error
	logListErr   error
	statsErr     error
	driversErr   error
	delTicketErr error
	delLogErr    error

	deletedTickets int64
	deletedLogs    int64
}

func (f *fakeStore) SelectTickets(ctx context.Context, q TicketQuery) ([]Ticket, int64, error) {
	f.selectQueries = append(f.selectQueries, q)
	if f.selectErr != nil {
		return nil, 0, f.selectErr
	}
	return f.selectResult, f.selectCount, nil
}

func (f *fakeStore) TicketsByTicketIDs(ctx context.Context, ids []string) ([]Ticket, error) {
	f.idQueries = append(f.idQueries, ids)
	if f.fetchIDErr != nil {
		return nil, f.fetchIDErr
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Ticket
	for _, t := range f.tickets {
		if want[t.TicketID] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) TicketsBySPXTNs(ctx context.Context, codes []string) ([]Ticket, error) {
	f.tnQueries = append(f.tnQueries, codes)
	if f.fetchTNErr != nil {
		return nil, f.fetchTNErr
	}
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	var out []Ticket
	for _, t := range f.tickets {
		if t.SPXTN != "" && want[t.SPXTN] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) InsertTickets(ctx context.Context, tickets []Ticket) error {
	f.inserted = append(f.inserted, tickets)
	if f.insertErr != nil {
		if err := f.insertErr(tickets); err != nil {
			return err
		}
	}
	f.tickets = append(f.tickets, tickets...)
	return nil
}

func (f *fakeStore) UpdateTicketFields(ctx context.Context, ticketID string, fields map[string]any) error {
	if f.updateErr != nil {
		if err := f.updateErr(ticketID); err != nil {
			return err
		}
	}
	f.fieldUpdates = append(f.fieldUpdates, fieldUpdate{TicketID: ticketID, Fields: fields})
	return nil
}

func (f *fakeStore) UpdateInternalStatusByIDs(ctx context.Context, ids []string, status string, changedAt time.Time) (int64, error) {
	f.bulkStatus = append(f.bulkStatus, status)
	f.bulkIDs = append(f.bulkIDs, ids)
	return int64(len(ids)), nil
}

func (f *fakeStore) InsertImportLog(ctx context.Context, log *ImportLog) (int64, error) {
	if f.logInsertErr != nil {
		return 0, f.logInsertErr
	}
	f.insertedLogs = append(f.insertedLogs, log)
	id := int64(len(f.insertedLogs))
	stored := *log
	stored.ID = id
	f.logs = append(f.logs, stored)
	return id, nil
}

func (f *fakeStore) ListImportLogs(ctx context.Context, offset, limit int) ([]ImportLog, int64, error) {
	if f.logListErr != nil {
		return nil, 0, f.logListErr
	}
	total := int64(len(f.logs))
	if offset >= len(f.logs) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(f.logs) {
		end = len(f.logs)
	}
	return f.logs[offset:end], total, nil
}

func (f *fakeStore) StatsRows(ctx context.Context, start, end *time.Time, offset, limit int) ([]StatsRow, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	if offset >= len(f.statsRows) {
		return nil, nil
	}
	last := offset + limit
	if last > len(f.statsRows) {
		last = len(f.statsRows)
	}
	return f.statsRows[offset:last], nil
}

func (f *fakeStore) DistinctDrivers(ctx context.Context) ([]string, error) {
	if f.driversErr != nil {
		return nil, f.driversErr
	}
	return f.drivers, nil
}

func (f *fakeStore) DeleteAllTickets(ctx context.Context) (int64, error) {
	if f.delTicketErr != nil {
		return 0, f.delTicketErr
	}
	n := f.deletedTickets
	if n == 0 {
		n = int64(len(f.tickets))
	}
	f.tickets = nil
	return n, nil
}

func (f *fakeStore) DeleteAllImportLogs(ctx context.Context) (int64, error) {
	if f.delLogErr != nil {
		return 0, f.delLogErr
	}
	n := f.deletedLogs
	if n == 0 {
		n = int64(len(f.logs))
	}
	f.logs = nil
	return n, nil
}

// newTestService builds a Service over a fakeStore with a fixed clock.
func newTestService(store *fakeStore, opts Options) *Service {
	s := NewService(store, opts)
	s.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return s
}
