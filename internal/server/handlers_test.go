package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stadtimpuls/kompass/pkg/engine"
	"github.com/stadtimpuls/kompass/pkg/records"
)

func futureDay(offset int) *time.Time {
	d := time.Now().AddDate(0, 0, offset)
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.Local)
	return &d
}

func seededEngine(recs []records.Record) *engine.Engine {
	e := engine.New(engine.Config{
		Fetch:      func(context.Context) ([]records.Record, error) { return nil, nil },
		Collection: "test",
	})
	e.SetRecords(recs)
	return e
}

func testServer() *Server {
	events := seededEngine([]records.Record{
		{Kind: records.KindEvent, ID: "e1", Title: "Repair Café", StartDate: futureDay(1),
			Tags: []string{"DIY"}, Approved: true},
		{Kind: records.KindEvent, ID: "e2", Title: "KI-Stammtisch", StartDate: futureDay(3),
			Tags: []string{"KI"}, Approved: true},
	})
	funding := seededEngine([]records.Record{
		{Kind: records.KindFunding, ID: "f1", Title: "Mikroförderung",
			DeadlineType: records.DeadlineOngoing, Approved: true},
	})
	return New(events, funding, "", "")
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeQuery(t *testing.T, rec *httptest.ResponseRecorder) QueryResponse {
	t.Helper()
	var resp QueryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestEventsEndpoint(t *testing.T) {
	h := testServer().Handler()

	rec := get(t, h, "/api/events")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decodeQuery(t, rec)
	if len(resp.Records) != 2 {
		t.Fatalf("expected both events, got %d", len(resp.Records))
	}
	// Anchor date descending.
	if resp.Records[0].ID != "e2" || resp.Records[1].ID != "e1" {
		t.Errorf("wrong order: %s, %s", resp.Records[0].ID, resp.Records[1].ID)
	}
}

func TestEventsTagFilterKeepsFacetCandidates(t *testing.T) {
	h := testServer().Handler()

	resp := decodeQuery(t, get(t, h, "/api/events?tag=KI"))
	if len(resp.Records) != 1 || resp.Records[0].ID != "e2" {
		t.Fatalf("tag filter not applied: %+v", resp.Records)
	}
	// Facets are computed before tag narrowing, so the sibling tag stays.
	found := false
	for _, tc := range resp.Facets.Top {
		if tc.Tag == "DIY" {
			found = true
		}
	}
	if !found {
		t.Error("facets must come from the pre-tag candidate set")
	}
}

func TestUnapprovedRecordsNeverServed(t *testing.T) {
	events := seededEngine([]records.Record{
		{Kind: records.KindEvent, ID: "visible", Title: "Offen", StartDate: futureDay(1),
			Approved: true},
		{Kind: records.KindEvent, ID: "secret", Title: "Unmoderiert", StartDate: futureDay(2),
			Tags: []string{"Intern"}, Approved: false},
	})
	funding := seededEngine(nil)
	h := New(events, funding, "", "").Handler()

	resp := decodeQuery(t, get(t, h, "/api/events"))
	if len(resp.Records) != 1 || resp.Records[0].ID != "visible" {
		t.Fatalf("unapproved record must never be served: %+v", resp.Records)
	}
	// The unapproved record's tags must not surface through facets either.
	for _, tc := range resp.Facets.Top {
		if tc.Tag == "Intern" {
			t.Error("unapproved record leaked into facet counts")
		}
	}
}

func TestInvalidParamsRejected(t *testing.T) {
	h := testServer().Handler()

	if rec := get(t, h, "/api/events?horizon=lastWeek"); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid horizon: got %d, want 400", rec.Code)
	}
	if rec := get(t, h, "/api/funding?amount=huge"); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid amount: got %d, want 400", rec.Code)
	}
}

func TestFundingEndpoint(t *testing.T) {
	h := testServer().Handler()

	resp := decodeQuery(t, get(t, h, "/api/funding?horizon=ongoing"))
	if len(resp.Records) != 1 || resp.Records[0].ID != "f1" {
		t.Fatalf("ongoing program must match: %+v", resp.Records)
	}
}

func TestStatusEndpoint(t *testing.T) {
	h := testServer().Handler()

	rec := get(t, h, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]struct {
		Status engine.Status `json:"status"`
		Total  int           `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["events"].Status != engine.StatusLoaded || body["events"].Total != 2 {
		t.Errorf("unexpected events status: %+v", body["events"])
	}
	if body["funding"].Total != 1 {
		t.Errorf("unexpected funding status: %+v", body["funding"])
	}
}

func TestBasicAuth(t *testing.T) {
	s := testServer()
	s.Username, s.Password = "admin", "secret"
	h := s.Handler()

	if rec := get(t, h, "/api/status"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing credentials: got %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("admin", "secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid credentials: got %d, want 200", rec.Code)
	}
}
