package core

import (
	"context"
	"testing"
)

// lastQuery returns the single query a test expects the store to have seen.
func lastQuery(t *testing.T, store *fakeStore) TicketQuery {
	t.Helper()
	if len(store.selectQueries) != 1 {
		t.Fatalf("expected exactly 1 store query, got %d", len(store.selectQueries))
	}
	return store.selectQueries[0]
}

func TestFetchTicketsPage_DefaultsAndRange(t *testing.T) {
	store := &fakeStore{selectCount: 120}
	svc := newTestService(store, Options{})

	page, err := svc.FetchTicketsPage(context.Background(), PageParams{Page: 3, PageSize: 20})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	q := lastQuery(t, store)
	if q.Offset != 40 || q.Limit != 20 {
		t.Errorf("range = offset %d limit %d, want 40/20", q.Offset, q.Limit)
	}
	if len(q.Clauses) != 0 {
		t.Errorf("no clauses expected, got %v", q.Clauses)
	}
	if q.Order.Column != ColSLADeadline || q.Order.Descending {
		t.Errorf("default order = %+v, want sla_deadline ASC", q.Order)
	}
	if page.Count != 120 {
		t.Errorf("Count = %d, want 120", page.Count)
	}
	if page.SearchResult != nil {
		t.Error("no search result expected without a multi-code search")
	}
}

func TestFetchTicketsPage_SingleDigitTerm(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	_, err := svc.FetchTicketsPage(context.Background(), PageParams{SearchTerm: "12345"})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	q := lastQuery(t, store)
	if len(q.Clauses) != 1 {
		t.Fatalf("expected 1 clause, got %d", len(q.Clauses))
	}

	conds := q.Clauses[0].Any
	if len(conds) != 3 {
		t.Fatalf("digit term must match id, station, and code: got %d conds", len(conds))
	}
	if conds[0].Column != ColTicketID || conds[0].Op != OpEq || conds[0].Value != "12345" {
		t.Errorf("conds[0] = %+v, want exact ticket_id match", conds[0])
	}
	if conds[1].Column != ColStation || conds[1].Op != OpILike {
		t.Errorf("conds[1] = %+v, want station substring", conds[1])
	}
	if conds[2].Column != ColSPXTN || conds[2].Value != "%12345%" {
		t.Errorf("conds[2] = %+v, want spxtn substring", conds[2])
	}
}

func TestFetchTicketsPage_SingleTextTerm(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	_, err := svc.FetchTicketsPage(context.Background(), PageParams{SearchTerm: "GRU"})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	conds := lastQuery(t, store).Clauses[0].Any
	if len(conds) != 2 {
		t.Fatalf("text term must match substrings only: got %d conds", len(conds))
	}
	for _, c := range conds {
		if c.Op != OpILike {
			t.Errorf("cond %+v, want ILIKE", c)
		}
	}
}

func TestFetchTicketsPage_MultiCodeSearch(t *testing.T) {
	store := &fakeStore{
		selectResult: []Ticket{
			{TicketID: "111", SPXTN: "BR111"},
			{TicketID: "999", SPXTN: "BRX"},
		},
		selectCount: 2,
	}
	svc := newTestService(store, Options{})

	page, err := svc.FetchTicketsPage(context.Background(), PageParams{
		SearchTerm: "BR111\n222\nBR333",
	})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	conds := lastQuery(t, store).Clauses[0].Any
	if len(conds) != 2 {
		t.Fatalf("expected IN on codes plus IN on digit ids, got %d conds", len(conds))
	}
	if conds[0].Column != ColSPXTN || conds[0].Op != OpIn {
		t.Errorf("conds[0] = %+v, want spxtn IN", conds[0])
	}
	if conds[1].Column != ColTicketID || conds[1].Op != OpIn {
		t.Errorf("conds[1] = %+v, want ticket_id IN", conds[1])
	}
	digitIDs := conds[1].Value.([]string)
	if len(digitIDs) != 1 || digitIDs[0] != "222" {
		t.Errorf("digit ids = %v, want [222]", digitIDs)
	}

	if page.SearchResult == nil {
		t.Fatal("multi-code search must carry a SearchResult")
	}
	sr := page.SearchResult
	if len(sr.FoundCodes) != 1 || sr.FoundCodes[0] != "BR111" {
		t.Errorf("FoundCodes = %v, want [BR111]", sr.FoundCodes)
	}
	if len(sr.NotFoundCodes) != 2 || sr.NotFoundCodes[0] != "222" || sr.NotFoundCodes[1] != "BR333" {
		t.Errorf("NotFoundCodes = %v, want [222 BR333] in searched order", sr.NotFoundCodes)
	}
}

func TestFetchTicketsPage_TrackingFilterDualMode(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	_, err := svc.FetchTicketsPage(context.Background(), PageParams{
		Filters: &ColumnFilters{Tracking: "4711"},
	})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	conds := lastQuery(t, store).Clauses[0].Any
	if len(conds) != 2 || conds[0].Op != OpEq || conds[1].Op != OpILike {
		t.Errorf("digit tracking filter = %+v, want eq ticket_id OR ilike spxtn", conds)
	}

	store.selectQueries = nil
	_, err = svc.FetchTicketsPage(context.Background(), PageParams{
		Filters: &ColumnFilters{Tracking: "BRABC"},
	})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	conds = lastQuery(t, store).Clauses[0].Any
	if len(conds) != 1 || conds[0].Column != ColSPXTN || conds[0].Op != OpILike {
		t.Errorf("text tracking filter = %+v, want single spxtn ilike", conds)
	}
}

func TestFetchTicketsPage_DriverFilterCoversStation(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	_, err := svc.FetchTicketsPage(context.Background(), PageParams{
		Filters: &ColumnFilters{Driver: "João"},
	})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	conds := lastQuery(t, store).Clauses[0].Any
	if len(conds) != 2 || conds[0].Column != ColDriverName || conds[1].Column != ColStation {
		t.Errorf("driver filter = %+v, want driver_name OR station", conds)
	}
}

func TestFetchTicketsPage_ValueBuckets(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	_, err := svc.FetchTicketsPage(context.Background(), PageParams{
		Filters: &ColumnFilters{Value: "20-50"},
	})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	q := lastQuery(t, store)
	if len(q.Clauses) != 2 {
		t.Fatalf("range bucket = %d clauses, want gte + lte", len(q.Clauses))
	}
	if q.Clauses[0].Any[0].Op != OpGte || q.Clauses[0].Any[0].Value != 20.0 {
		t.Errorf("lower bound = %+v", q.Clauses[0].Any[0])
	}
	if q.Clauses[1].Any[0].Op != OpLte || q.Clauses[1].Any[0].Value != 50.0 {
		t.Errorf("upper bound = %+v", q.Clauses[1].Any[0])
	}

	store.selectQueries = nil
	_, err = svc.FetchTicketsPage(context.Background(), PageParams{
		Filters: &ColumnFilters{Value: ValueFilterOpen},
	})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	q = lastQuery(t, store)
	if len(q.Clauses) != 1 || q.Clauses[0].Any[0].Op != OpGte || q.Clauses[0].Any[0].Value != 200.0 {
		t.Errorf("open bucket = %+v, want single gte 200", q.Clauses)
	}
}

func TestFetchTicketsPage_StatusLabelMapping(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	_, err := svc.FetchTicketsPage(context.Background(), PageParams{
		Filters: &ColumnFilters{Status: "Devolvido"},
	})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	conds := lastQuery(t, store).Clauses[0].Any
	if len(conds) != 2 {
		t.Fatalf("devolvido maps to 2 patterns, got %d", len(conds))
	}
	if conds[0].Value != "%reversed%" || conds[1].Value != "%returned%" {
		t.Errorf("patterns = %v, %v", conds[0].Value, conds[1].Value)
	}

	store.selectQueries = nil
	_, err = svc.FetchTicketsPage(context.Background(), PageParams{
		Filters: &ColumnFilters{Status: "weird"},
	})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	conds = lastQuery(t, store).Clauses[0].Any
	if len(conds) != 1 || conds[0].Value != "%weird%" {
		t.Errorf("unmapped label must fall back to raw substring, got %+v", conds)
	}
}

func TestFetchTicketsPage_SortByStatusChange(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	_, err := svc.FetchTicketsPage(context.Background(), PageParams{
		SortBy:    ColInternalStatusUpdatedAt,
		SortOrder: "desc",
	})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	order := lastQuery(t, store).Order
	if order.Column != ColInternalStatusUpdatedAt || !order.Descending || !order.NullsLast {
		t.Errorf("order = %+v, want internal_status_updated_at DESC NULLS LAST", order)
	}
}

func TestFetchTicketsPage_InternalAndNotesFilters(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store, Options{})

	_, err := svc.FetchTicketsPage(context.Background(), PageParams{
		Filters: &ColumnFilters{Internal: StatusPendente, Notes: "reembolso"},
	})
	if err != nil {
		t.Fatalf("FetchTicketsPage() error = %v", err)
	}

	q := lastQuery(t, store)
	if len(q.Clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(q.Clauses))
	}
	if q.Clauses[0].Any[0].Op != OpEq || q.Clauses[0].Any[0].Value != StatusPendente {
		t.Errorf("internal filter = %+v, want exact match", q.Clauses[0].Any[0])
	}
	if q.Clauses[1].Any[0].Op != OpILike || q.Clauses[1].Any[0].Value != "%reembolso%" {
		t.Errorf("notes filter = %+v, want substring", q.Clauses[1].Any[0])
	}
}

func TestCrossCheckCodes_Order(t *testing.T) {
	tickets := []Ticket{
		{TicketID: "2", SPXTN: "B"},
		{TicketID: "1", SPXTN: "A"},
	}

	sr := crossCheckCodes([]string{"A", "missing", "B"}, tickets)

	// Found order follows ticket discovery; not-found preserves input order.
	if len(sr.FoundCodes) != 2 || sr.FoundCodes[0] != "B" || sr.FoundCodes[1] != "A" {
		t.Errorf("FoundCodes = %v, want [B A]", sr.FoundCodes)
	}
	if len(sr.NotFoundCodes) != 1 || sr.NotFoundCodes[0] != "missing" {
		t.Errorf("NotFoundCodes = %v, want [missing]", sr.NotFoundCodes)
	}
}
