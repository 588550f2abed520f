package core

// convert.go handles the messy value formats that arrive in delivery CSV
// exports: locale-formatted currency strings ("1.200,50", "R$ 15,00") and
// deadlines in whatever date layout the source system produced that week.
// Deadlines are normalized to time.Time at ingest so later comparisons never
// diff equivalent representations.

import (
	"strconv"
	"strings"
	"time"
)

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006 15:04",
	"2/1/2006",
	"01-02-2006 15:04:05",
	"20060102",
}

// ParseCurrency converts a locale-formatted currency string to a float.
// "1.200,50" -> 1200.50, "100,50" -> 100.50, "R$ 15" -> 15. Unparseable or
// empty input yields 0, matching how the source system reports missing values.
func ParseCurrency(value string) float64 {
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, value)

	if clean == "" {
		return 0
	}

	if i := strings.IndexByte(clean, ','); i >= 0 {
		if dot := strings.IndexByte(clean, '.'); dot >= 0 && dot < i {
			// Brazilian grouping: 1.000,00
			clean = strings.ReplaceAll(clean, ".", "")
		}
		clean = strings.Replace(clean, ",", ".", 1)
	}

	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseDeadline parses an SLA deadline string, trying the known layouts in
// order. Returns nil for empty or unrecognized input.
func ParseDeadline(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// formatAmount renders a numeric value for diff display without trailing
// zeros ("20.5", not "20.500000").
func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatTime renders an optional timestamp for diff display.
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
