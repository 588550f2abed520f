package core

import (
	"context"
	"fmt"
)

// DefaultFetchChunkSize is the number of keys per IN query during existing-
// record lookup.
const DefaultFetchChunkSize = 200

// chunkStrings splits keys into chunks of at most size, preserving order.
func chunkStrings(keys []string, size int) [][]string {
	if len(keys) == 0 {
		return nil
	}
	var chunks [][]string
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		chunks = append(chunks, keys[start:end])
	}
	return chunks
}

// FetchExistingByKeys fetches the tickets matching any of the given business
// keys or tracking codes. Keys are split into chunks of chunkSize and each
// chunk is one sequential IN query: business keys first, then tracking codes.
// Results are de-duplicated by ticket_id: a ticket found via its business key
// is not re-added when its tracking code also matches.
//
// Any chunk failure aborts the whole fetch; no partial result is returned.
// The returned tickets carry no ordering guarantee.
func (s *Service) FetchExistingByKeys(ctx context.Context, primaryKeys, secondaryKeys []string, chunkSize int, onProgress ProgressFunc) ([]Ticket, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultFetchChunkSize
	}

	idChunks := chunkStrings(primaryKeys, chunkSize)
	codeChunks := chunkStrings(secondaryKeys, chunkSize)

	totalChunks := len(idChunks) + len(codeChunks)
	totalItems := len(primaryKeys) + len(secondaryKeys)

	var existing []Ticket
	seen := make(map[string]bool)

	chunk := 0
	itemsDone := 0

	add := func(tickets []Ticket) {
		for _, t := range tickets {
			if seen[t.TicketID] {
				continue
			}
			seen[t.TicketID] = true
			existing = append(existing, t)
		}
	}

	for _, keys := range idChunks {
		tickets, err := s.store.TicketsByTicketIDs(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("fetch tickets by id (chunk %d/%d): %w", chunk+1, totalChunks, err)
		}
		add(tickets)

		chunk++
		itemsDone += len(keys)
		notify(onProgress, Progress{
			Stage:       StageFetchByID,
			Chunk:       chunk,
			TotalChunks: totalChunks,
			ItemsDone:   itemsDone,
			ItemsTotal:  totalItems,
			Message:     fmt.Sprintf("Verificando tickets existentes (%d/%d)", itemsDone, totalItems),
		})
	}

	for _, keys := range codeChunks {
		tickets, err := s.store.TicketsBySPXTNs(ctx, keys)
		if err != nil {
			return nil, fmt.Errorf("fetch tickets by tracking code (chunk %d/%d): %w", chunk+1, totalChunks, err)
		}
		add(tickets)

		chunk++
		itemsDone += len(keys)
		notify(onProgress, Progress{
			Stage:       StageFetchBySPXTN,
			Chunk:       chunk,
			TotalChunks: totalChunks,
			ItemsDone:   itemsDone,
			ItemsTotal:  totalItems,
			Message:     fmt.Sprintf("Verificando códigos de rastreio (%d/%d)", itemsDone, totalItems),
		})
	}

	return existing, nil
}
