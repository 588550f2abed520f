package core

import (
	"context"
	"fmt"
	"time"
)

// Skip reasons recorded on preview items. These are row-level classifications,
// not errors to propagate.
const (
	skipMissingID      = "ticket_id missing"
	skipDuplicateID    = "duplicate ticket_id in file"
	skipDuplicateSPXTN = "duplicate tracking code in file"
	skipNoChanges      = "no changes detected"
)

// Analyze classifies candidate tickets against the store as create, update,
// or skip. Existing records are looked up through the chunked fetcher; the
// comparison covers operational fields only, so operator triage (internal
// status, notes) is never part of a diff. Duplicate business keys or tracking
// codes within the same file skip every occurrence after the first.
//
// A store failure during lookup aborts the whole analysis; partial
// classifications are never returned.
func (s *Service) Analyze(ctx context.Context, candidates []Ticket, onProgress ProgressFunc) (*ImportAnalysis, error) {
	var ticketIDs, spxtns []string
	for _, c := range candidates {
		if c.TicketID != "" {
			ticketIDs = append(ticketIDs, c.TicketID)
		}
		if c.SPXTN != "" {
			spxtns = append(spxtns, c.SPXTN)
		}
	}

	// No candidate carries any key: every row is unusable, skip the lookup.
	if len(ticketIDs) == 0 && len(spxtns) == 0 {
		analysis := &ImportAnalysis{Summary: ImportSummary{Total: len(candidates), ToSkip: len(candidates)}}
		for _, c := range candidates {
			analysis.Previews = append(analysis.Previews, ImportPreviewItem{
				Ticket:    c,
				Operation: OpSkip,
				Error:     skipMissingID,
			})
		}
		return analysis, nil
	}

	existing, err := s.FetchExistingByKeys(ctx, ticketIDs, spxtns, s.opts.FetchChunkSize, onProgress)
	if err != nil {
		return nil, err
	}

	// Each existing ticket is reachable by either of its keys.
	byKey := make(map[string]*Ticket, len(existing)*2)
	for i := range existing {
		t := &existing[i]
		byKey["id:"+t.TicketID] = t
		if t.SPXTN != "" {
			byKey["tn:"+t.SPXTN] = t
		}
	}

	analysis := &ImportAnalysis{Summary: ImportSummary{Total: len(candidates)}}
	seenIDs := make(map[string]bool, len(candidates))
	seenSPXTNs := make(map[string]bool, len(candidates))

	for i, c := range candidates {
		item := ImportPreviewItem{Ticket: c}

		switch {
		case c.TicketID == "":
			item.Operation = OpSkip
			item.Error = skipMissingID

		case seenIDs[c.TicketID]:
			item.Operation = OpSkip
			item.Error = skipDuplicateID

		case c.SPXTN != "" && seenSPXTNs[c.SPXTN]:
			item.Operation = OpSkip
			item.Error = skipDuplicateSPXTN

		default:
			seenIDs[c.TicketID] = true
			if c.SPXTN != "" {
				seenSPXTNs[c.SPXTN] = true
			}

			match := byKey["id:"+c.TicketID]
			if match == nil && c.SPXTN != "" {
				match = byKey["tn:"+c.SPXTN]
			}

			if match == nil {
				item.Operation = OpCreate
			} else if changes := diffOperational(match, &c); len(changes) > 0 {
				item.Operation = OpUpdate
				item.Changes = changes
				item.Existing = match
			} else {
				item.Operation = OpSkip
				item.Error = skipNoChanges
			}
		}

		switch item.Operation {
		case OpCreate:
			analysis.Summary.ToCreate++
		case OpUpdate:
			analysis.Summary.ToUpdate++
		case OpSkip:
			analysis.Summary.ToSkip++
		}
		analysis.Previews = append(analysis.Previews, item)

		if (i+1)%500 == 0 || i+1 == len(candidates) {
			notify(onProgress, Progress{
				Stage:      StageAnalyze,
				ItemsDone:  i + 1,
				ItemsTotal: len(candidates),
				Message:    fmt.Sprintf("Analisando registros (%d/%d)", i+1, len(candidates)),
			})
		}
	}

	return analysis, nil
}

// diffOperational compares the import-owned fields of an existing ticket and
// its candidate. Operator-owned fields are deliberately excluded so a
// re-import never clobbers manual triage.
func diffOperational(existing, candidate *Ticket) []FieldChange {
	var changes []FieldChange

	if existing.DriverName != candidate.DriverName {
		changes = append(changes, FieldChange{"Motorista", existing.DriverName, candidate.DriverName})
	}
	if existing.Station != candidate.Station {
		changes = append(changes, FieldChange{"Estação", existing.Station, candidate.Station})
	}
	if existing.PNRValue != candidate.PNRValue {
		changes = append(changes, FieldChange{"Valor PNR", formatAmount(existing.PNRValue), formatAmount(candidate.PNRValue)})
	}
	if existing.OriginalStatus != candidate.OriginalStatus {
		changes = append(changes, FieldChange{"Status", existing.OriginalStatus, candidate.OriginalStatus})
	}
	if !timesEqual(existing.SLADeadline, candidate.SLADeadline) {
		changes = append(changes, FieldChange{"Prazo SLA", formatTime(existing.SLADeadline), formatTime(candidate.SLADeadline)})
	}

	return changes
}

// timesEqual compares optional timestamps by instant, so equivalent
// representations of the same deadline never produce a spurious diff.
func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
