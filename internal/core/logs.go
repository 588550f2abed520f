package core

import (
	"context"
	"fmt"
	"time"
)

// buildImportLog summarizes an executed preview batch into the audit record
// persisted with every import attempt.
func buildImportLog(previews []ImportPreviewItem, result *ImportResult, fileName, importedBy string, at time.Time) *ImportLog {
	details := ImportLogDetails{
		Items:  make([]ImportLogItem, 0, len(previews)),
		Errors: result.Errors,
	}
	if details.Errors == nil {
		details.Errors = []string{}
	}

	for _, item := range previews {
		details.Items = append(details.Items, ImportLogItem{
			TicketID:  item.Ticket.TicketID,
			Operation: item.Operation,
			Changes:   item.Changes,
			Error:     item.Error,
		})
	}

	return &ImportLog{
		ImportDate:     at,
		ImportedBy:     importedBy,
		FileName:       fileName,
		TotalRows:      result.TotalProcessed,
		NewRecords:     result.NewRecords,
		UpdatedRecords: result.UpdatedRecords,
		SkippedRecords: result.SkippedRecords,
		Details:        details,
	}
}

// ImportLogPage is one page of the import history.
type ImportLogPage struct {
	Logs  []ImportLog `json:"logs"`
	Count int64       `json:"count"`
}

// ListImportLogs returns the import history newest first.
func (s *Service) ListImportLogs(ctx context.Context, page, pageSize int) (*ImportLogPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	logs, count, err := s.store.ListImportLogs(ctx, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list import logs: %w", err)
	}
	return &ImportLogPage{Logs: logs, Count: count}, nil
}
