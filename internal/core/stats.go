package core

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// topDrivers is how many drivers the volume distribution keeps.
const topDrivers = 5

// DashboardStats computes the overview numbers: KPI totals, the
// original-status distribution, and the top driver volumes, optionally
// bounded by a created_time range. The store is read in sequential
// fixed-size batches of a narrow column projection, never one unbounded
// select, so stats stay cheap even on large tables.
func (s *Service) DashboardStats(ctx context.Context, start, end *time.Time) (*DashboardStats, error) {
	batchSize := s.opts.StatsBatchSize

	var kpis KpiStats
	statusCounts := make(map[string]int)
	driverCounts := make(map[string]int)

	for offset := 0; ; offset += batchSize {
		rows, err := s.store.StatsRows(ctx, start, end, offset, batchSize)
		if err != nil {
			return nil, fmt.Errorf("dashboard stats: %w", err)
		}

		for _, row := range rows {
			kpis.TotalTickets++
			kpis.TotalValue += row.PNRValue
			if row.InternalStatus == StatusPendente {
				kpis.PendingCount++
			}

			status := row.OriginalStatus
			if status == "" {
				status = "Unknown"
			}
			statusCounts[status]++

			driver := row.DriverName
			if driver == "" {
				driver = "Unknown"
			}
			driverCounts[driver]++
		}

		if len(rows) < batchSize {
			break
		}
	}

	return &DashboardStats{
		Kpis:       kpis,
		StatusDist: sortedDist(statusCounts, 0),
		DriverDist: sortedDist(driverCounts, topDrivers),
	}, nil
}

// sortedDist turns a count map into entries sorted by descending count,
// ties broken by name, optionally truncated to the top n.
func sortedDist(counts map[string]int, n int) []DistEntry {
	entries := make([]DistEntry, 0, len(counts))
	for name, value := range counts {
		entries = append(entries, DistEntry{Name: name, Value: value})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Name < entries[j].Name
	})
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// UniqueDrivers returns the distinct driver names for filter dropdowns.
func (s *Service) UniqueDrivers(ctx context.Context) ([]string, error) {
	drivers, err := s.store.DistinctDrivers(ctx)
	if err != nil {
		return nil, fmt.Errorf("unique drivers: %w", err)
	}
	return drivers, nil
}

// ReportData is the queryable part of an ad-hoc report: the matching tickets
// plus the aggregates. File serialization is the caller's concern.
type ReportData struct {
	Tickets     []Ticket   `json:"tickets"`
	Kpis        KpiStats   `json:"kpis"`
	PeriodStart *time.Time `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time `json:"periodEnd,omitempty"`
	GeneratedAt time.Time  `json:"generatedAt"`
}

// GenerateReport collects every ticket in the period (all time when both
// bounds are nil), reading in sequential batches ordered by deadline.
func (s *Service) GenerateReport(ctx context.Context, start, end *time.Time) (*ReportData, error) {
	var clauses []Clause
	if start != nil {
		clauses = append(clauses, Where(Gte(ColCreatedTime, *start)))
	}
	if end != nil {
		clauses = append(clauses, Where(Lte(ColCreatedTime, *end)))
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, fmt.Errorf("report period end before start")
	}

	batchSize := s.opts.StatsBatchSize
	report := &ReportData{PeriodStart: start, PeriodEnd: end, GeneratedAt: s.now()}

	for offset := 0; ; offset += batchSize {
		tickets, _, err := s.store.SelectTickets(ctx, TicketQuery{
			Clauses: clauses,
			Order:   OrderBy{Column: ColSLADeadline},
			Offset:  offset,
			Limit:   batchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("generate report: %w", err)
		}

		for _, t := range tickets {
			report.Kpis.TotalTickets++
			report.Kpis.TotalValue += t.PNRValue
			if t.InternalStatus == StatusPendente {
				report.Kpis.PendingCount++
			}
		}
		report.Tickets = append(report.Tickets, tickets...)

		if len(tickets) < batchSize {
			break
		}
	}

	return report, nil
}
