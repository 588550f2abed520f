package core

import (
	"context"
	"fmt"
	"log/slog"
)

// Execute commits a classified preview batch: creates are inserted in chunks,
// updates are applied one row at a time (each payload carries that row's own
// preserved operator fields), skips are only counted. Write failures are
// accumulated, never fatal; remaining chunks and rows still run. Execute
// never panics out or returns an error; any unexpected failure becomes a
// failed result with the counts accumulated so far.
//
// One ImportLog row is persisted per attempt, including partially failed ones.
func (s *Service) Execute(ctx context.Context, previews []ImportPreviewItem, fileName, importedBy string, onProgress ProgressFunc) (result *ImportResult) {
	result = &ImportResult{TotalProcessed: len(previews)}

	defer func() {
		if r := recover(); r != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("import aborted: %v", r))
			result.Success = false
			slog.Error("import panicked", "file", fileName, "panic", r)
		}
	}()

	var creates, updates []ImportPreviewItem
	for _, item := range previews {
		switch item.Operation {
		case OpCreate:
			creates = append(creates, item)
		case OpUpdate:
			updates = append(updates, item)
		default:
			result.SkippedRecords++
		}
	}

	createChunks := chunkPreviews(creates, s.opts.InsertChunkSize)
	updateChunks := chunkPreviews(updates, s.opts.UpdateChunkSize)
	totalChunks := len(createChunks) + len(updateChunks)
	chunk := 0

	for _, batch := range createChunks {
		tickets := make([]Ticket, len(batch))
		for i, item := range batch {
			tickets[i] = item.Ticket
		}

		// No partial-chunk success is assumed for inserts: a failed chunk
		// counts none of its rows as created.
		if err := s.store.InsertTickets(ctx, tickets); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("insert chunk of %d tickets: %v", len(batch), err))
		} else {
			result.NewRecords += len(batch)
		}

		chunk++
		notify(onProgress, Progress{
			Stage:       StageInsert,
			Chunk:       chunk,
			TotalChunks: totalChunks,
			ItemsDone:   result.NewRecords,
			ItemsTotal:  len(creates) + len(updates),
			Message:     fmt.Sprintf("Criando novos registros (lote %d/%d)", chunk, totalChunks),
		})
	}

	for _, batch := range updateChunks {
		for _, item := range batch {
			fields := s.updatePayload(item)
			if err := s.store.UpdateTicketFields(ctx, item.Ticket.TicketID, fields); err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("update ticket %s: %v", item.Ticket.TicketID, err))
				continue
			}
			result.UpdatedRecords++
		}

		chunk++
		notify(onProgress, Progress{
			Stage:       StageUpdate,
			Chunk:       chunk,
			TotalChunks: totalChunks,
			ItemsDone:   result.NewRecords + result.UpdatedRecords,
			ItemsTotal:  len(creates) + len(updates),
			Message:     fmt.Sprintf("Atualizando registros (lote %d/%d)", chunk, totalChunks),
		})
	}

	result.Success = len(result.Errors) == 0

	log := buildImportLog(previews, result, fileName, importedBy, s.now())
	logID, err := s.store.InsertImportLog(ctx, log)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("persist import log: %v", err))
		result.Success = false
	} else {
		result.LogID = logID
	}

	slog.Info("import executed",
		"file", fileName,
		"new", result.NewRecords,
		"updated", result.UpdatedRecords,
		"skipped", result.SkippedRecords,
		"errors", len(result.Errors),
	)

	return result
}

// updatePayload builds the column map for one row's update. Operational
// fields come from the candidate; the operator-owned fields are explicitly
// carried forward from the matched existing ticket so the write can never
// reset them to defaults. Unset values are stripped rather than written.
func (s *Service) updatePayload(item ImportPreviewItem) map[string]any {
	fields := map[string]any{
		ColDriverName:     item.Ticket.DriverName,
		ColStation:        item.Ticket.Station,
		ColPNRValue:       item.Ticket.PNRValue,
		ColOriginalStatus: item.Ticket.OriginalStatus,
		ColUpdatedAt:      s.now(),
	}
	if item.Ticket.SLADeadline != nil {
		fields[ColSLADeadline] = *item.Ticket.SLADeadline
	}

	if existing := item.Existing; existing != nil {
		fields[ColInternalStatus] = existing.InternalStatus
		fields[ColInternalNotes] = existing.InternalNotes
		if existing.InternalStatusUpdatedAt != nil {
			fields[ColInternalStatusUpdatedAt] = *existing.InternalStatusUpdatedAt
		}
		// Backfill the tracking code when the import has one and the stored
		// record does not; never overwrite an existing code.
		if item.Ticket.SPXTN != "" && existing.SPXTN == "" {
			fields[ColSPXTN] = item.Ticket.SPXTN
		}
	}

	return fields
}

func chunkPreviews(items []ImportPreviewItem, size int) [][]ImportPreviewItem {
	if len(items) == 0 {
		return nil
	}
	var chunks [][]ImportPreviewItem
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
