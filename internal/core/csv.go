package core

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxHeaderSearchRows is how many leading rows are scanned for the header.
// Source exports sometimes prepend title or filter rows.
var MaxHeaderSearchRows = 20

// Recognized CSV headers, lowercased. Unrecognized headers are ignored.
const (
	headerTicketID = "ihs ticket id"
	headerDriver   = "driver"
	headerValue    = "pnr order value"
	headerStatus   = "status"
	headerDeadline = "sla deadline"
	headerStation  = "station"
)

// spxtnHeaders are the header spellings seen for the tracking code column.
var spxtnHeaders = []string{"spx tn", "spxtn", "tracking code"}

// ParseCandidates converts raw CSV bytes into candidate tickets ready for
// reconciliation. It sanitizes UTF-8, locates the header row, and maps the
// recognized columns; rows without a ticket id are kept, since classification is
// the reconciliation engine's job, not the parser's.
func ParseCandidates(data []byte) ([]Ticket, error) {
	data = sanitizeUTF8(data)

	records, err := parseCSV(data)
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty file")
	}

	headerRow := findHeaderRow(records)
	if headerRow < 0 {
		return nil, fmt.Errorf("header not found (expected column %q)", "IHS Ticket ID")
	}

	idx := makeHeaderIndex(records[headerRow])
	dataRows := records[headerRow+1:]

	var candidates []Ticket
	for _, row := range dataRows {
		if isEmptyRow(row) {
			continue
		}
		candidates = append(candidates, mapRow(row, idx))
	}
	return candidates, nil
}

// mapRow builds one candidate ticket from a CSV data row.
func mapRow(row []string, idx map[string]int) Ticket {
	t := Ticket{
		TicketID:       cell(row, idx, headerTicketID),
		DriverName:     cell(row, idx, headerDriver),
		Station:        cell(row, idx, headerStation),
		PNRValue:       ParseCurrency(cell(row, idx, headerValue)),
		OriginalStatus: cell(row, idx, headerStatus),
		SLADeadline:    ParseDeadline(cell(row, idx, headerDeadline)),
		InternalStatus: StatusPendente,
	}

	for _, h := range spxtnHeaders {
		if v := cell(row, idx, h); v != "" {
			t.SPXTN = v
			break
		}
	}

	if t.DriverName == "" {
		t.DriverName = "Não Informado"
	}
	if t.OriginalStatus == "" {
		t.OriginalStatus = "Unknown"
	}
	return t
}

func cell(row []string, idx map[string]int, header string) string {
	pos, ok := idx[header]
	if !ok || pos >= len(row) {
		return ""
	}
	return cleanCell(row[pos])
}

// cleanCell strips CSV artifacts: surrounding whitespace, BOM, and Excel
// formula wrapping (="value").
func cleanCell(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// sniffDelimiter picks the delimiter from the first line. The source system
// exports semicolon-delimited files, but comma exports show up too.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.IndexByte(line, ';') >= 0 {
		return ';'
	}
	return ','
}

// findHeaderRow returns the index of the first row carrying the ticket id
// column, scanning at most MaxHeaderSearchRows rows.
func findHeaderRow(records [][]string) int {
	maxRows := MaxHeaderSearchRows
	if len(records) < maxRows {
		maxRows = len(records)
	}
	for i := 0; i < maxRows; i++ {
		for _, c := range records[i] {
			if strings.EqualFold(cleanCell(c), headerTicketID) {
				return i
			}
		}
	}
	return -1
}

// makeHeaderIndex maps lowercased header names to their column positions.
func makeHeaderIndex(headerRow []string) map[string]int {
	idx := make(map[string]int, len(headerRow))
	for i, h := range headerRow {
		key := strings.ToLower(cleanCell(h))
		if key == "" {
			continue
		}
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}
	return buf.Bytes()
}
