package core

import "strings"

// MaxTrackingCodes bounds how many codes a single multi-code operation may
// carry. It caps the size of IN clauses sent to the store.
const MaxTrackingCodes = 50

// ParseTrackingCodes splits a raw multi-line input into tracking codes:
// one code per line, trimmed, empties dropped, capped at MaxTrackingCodes.
// Used by the bulk status flow and by multi-code search.
func ParseTrackingCodes(input string) []string {
	if strings.TrimSpace(input) == "" {
		return nil
	}

	var codes []string
	for _, line := range strings.Split(input, "\n") {
		code := strings.TrimSpace(line)
		if code == "" {
			continue
		}
		codes = append(codes, code)
		if len(codes) == MaxTrackingCodes {
			break
		}
	}
	return codes
}

// isDigits reports whether s is non-empty and all ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
