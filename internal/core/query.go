package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// PageParams are the inputs of one ticket table page fetch.
type PageParams struct {
	Page       int
	PageSize   int
	SearchTerm string
	Filters    *ColumnFilters
	SortBy     string
	SortOrder  string
}

// statusFilterMap translates the display labels of the delivery status filter
// back to substring patterns against original_status. Unmapped labels fall
// back to a raw substring match.
var statusFilterMap = map[string][]string{
	"devolvido":     {"%reversed%", "%returned%"},
	"faturamento":   {"%forbilling%"},
	"entregue":      {"%delivered%"},
	"criado":        {"%created%"},
	"aguard. resp.": {"%pending driver reply%"},
	"análise resp.": {"%review driver reply%"},
	"cancelado":     {"%cancelled%"},
}

// ValueFilterOpen is the sentinel for the open-ended value bucket (>= 200).
const ValueFilterOpen = "200-plus"

// FetchTicketsPage builds one composed store query out of the global search
// term, the per-column filters, the ordering, and the page range, and
// executes it as a single round trip that also returns the total count.
//
// When the search term or the tracking filter parses into more than one code
// the query switches to multi-code lookup mode, and the result carries a
// SearchResult cross-checking which of the requested codes appear on the
// returned page.
func (s *Service) FetchTicketsPage(ctx context.Context, p PageParams) (*TicketPage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}

	var clauses []Clause
	var searchedCodes []string

	if term := strings.TrimSpace(p.SearchTerm); term != "" {
		codes := ParseTrackingCodes(term)
		if len(codes) > 1 {
			searchedCodes = codes
			clauses = append(clauses, multiCodeClause(codes))
		} else {
			clauses = append(clauses, singleTermClause(term))
		}
	}

	if f := p.Filters; f != nil {
		if f.Tracking != "" {
			codes := ParseTrackingCodes(f.Tracking)
			if len(codes) > 1 {
				searchedCodes = codes
				clauses = append(clauses, multiCodeClause(codes))
			} else if t := strings.TrimSpace(f.Tracking); t != "" {
				if isDigits(t) {
					clauses = append(clauses, AnyOf(
						Eq(ColTicketID, t),
						ILike(ColSPXTN, "%"+t+"%"),
					))
				} else {
					clauses = append(clauses, Where(ILike(ColSPXTN, "%"+t+"%")))
				}
			}
		}

		if d := strings.TrimSpace(f.Driver); d != "" {
			clauses = append(clauses, AnyOf(
				ILike(ColDriverName, "%"+d+"%"),
				ILike(ColStation, "%"+d+"%"),
			))
		}

		clauses = append(clauses, valueClauses(f.Value)...)

		if f.Status != "" {
			clauses = append(clauses, statusClause(f.Status))
		}

		if f.Internal != "" {
			clauses = append(clauses, Where(Eq(ColInternalStatus, f.Internal)))
		}

		if f.Notes != "" {
			clauses = append(clauses, Where(ILike(ColInternalNotes, "%"+f.Notes+"%")))
		}
	}

	query := TicketQuery{
		Clauses: clauses,
		Order:   orderSpec(p.SortBy, p.SortOrder),
		Offset:  (p.Page - 1) * p.PageSize,
		Limit:   p.PageSize,
	}

	tickets, count, err := s.store.SelectTickets(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetch tickets page: %w", err)
	}

	page := &TicketPage{Data: tickets, Count: count}
	if len(searchedCodes) > 0 {
		page.SearchResult = crossCheckCodes(searchedCodes, tickets)
	}
	return page, nil
}

// multiCodeClause builds the IN lookup for a multi-code search: all codes are
// matched against the tracking code, and the all-digit ones additionally
// against the business key.
func multiCodeClause(codes []string) Clause {
	var digitCodes []string
	for _, c := range codes {
		if isDigits(c) {
			digitCodes = append(digitCodes, c)
		}
	}

	conds := []Cond{In(ColSPXTN, codes)}
	if len(digitCodes) > 0 {
		conds = append(conds, In(ColTicketID, digitCodes))
	}
	return Clause{Any: conds}
}

// singleTermClause builds the global single-term search: digit terms match
// the business key exactly or station/tracking-code substrings, text terms
// match substrings only.
func singleTermClause(term string) Clause {
	if isDigits(term) {
		return AnyOf(
			Eq(ColTicketID, term),
			ILike(ColStation, "%"+term+"%"),
			ILike(ColSPXTN, "%"+term+"%"),
		)
	}
	return AnyOf(
		ILike(ColStation, "%"+term+"%"),
		ILike(ColSPXTN, "%"+term+"%"),
	)
}

// valueClauses translates a value bucket ("20-50" or the open sentinel) into
// range conditions on the amount column.
func valueClauses(value string) []Clause {
	if value == "" {
		return nil
	}
	if value == ValueFilterOpen {
		return []Clause{Where(Gte(ColPNRValue, 200.0))}
	}

	parts := strings.Split(value, "-")
	if len(parts) != 2 {
		return nil
	}

	var clauses []Clause
	if min, err := strconv.ParseFloat(parts[0], 64); err == nil {
		clauses = append(clauses, Where(Gte(ColPNRValue, min)))
	}
	if max, err := strconv.ParseFloat(parts[1], 64); err == nil {
		clauses = append(clauses, Where(Lte(ColPNRValue, max)))
	}
	return clauses
}

func statusClause(status string) Clause {
	patterns, ok := statusFilterMap[strings.ToLower(status)]
	if !ok {
		patterns = []string{"%" + status + "%"}
	}
	conds := make([]Cond, len(patterns))
	for i, p := range patterns {
		conds[i] = ILike(ColOriginalStatus, p)
	}
	return Clause{Any: conds}
}

func orderSpec(sortBy, sortOrder string) OrderBy {
	desc := strings.EqualFold(sortOrder, "desc")
	if sortBy == ColInternalStatusUpdatedAt {
		return OrderBy{Column: ColInternalStatusUpdatedAt, Descending: desc, NullsLast: true}
	}
	return OrderBy{Column: ColSLADeadline, Descending: desc}
}

// crossCheckCodes reports which of the searched codes appear on the returned
// page, matched against either key. Codes absent from this page land in
// NotFoundCodes even if they exist on another page.
func crossCheckCodes(searched []string, tickets []Ticket) *SearchResult {
	found := make([]string, 0, len(searched))
	isFound := make(map[string]bool, len(searched))

	for _, t := range tickets {
		for _, code := range searched {
			if isFound[code] {
				continue
			}
			if t.SPXTN == code || t.TicketID == code {
				isFound[code] = true
				found = append(found, code)
			}
		}
	}

	notFound := make([]string, 0, len(searched))
	for _, code := range searched {
		if !isFound[code] {
			notFound = append(notFound, code)
		}
	}

	return &SearchResult{
		SearchedCodes: searched,
		FoundCodes:    found,
		NotFoundCodes: notFound,
	}
}
