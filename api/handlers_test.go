/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Toggle (holiday rejection, allowance rejection, persistence)
- Reset and allowance updates
- ICS export headers and content
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/AntObr/holiday-planner/calendar"
	"github.com/AntObr/holiday-planner/holidays"
	"github.com/AntObr/holiday-planner/ics"
	"github.com/AntObr/holiday-planner/leave"
	"github.com/AntObr/holiday-planner/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

const upstreamJSON = `{
	"england-and-wales": {
		"division": "england-and-wales",
		"events": [
			{"title": "Christmas Day", "date": "2024-12-25", "notes": "", "bunting": true}
		]
	},
	"scotland": {"division": "scotland", "events": []},
	"northern-ireland": {"division": "northern-ireland", "events": []}
}`

// failingStore wraps the memory store and fails saves on demand.
type failingStore struct {
	*memory.Store
	failSaves bool
}

func (s *failingStore) SaveSession(ctx context.Context, session leave.Session) error {
	if s.failSaves {
		return errors.New("disk full")
	}
	return s.Store.SaveSession(ctx, session)
}

func newTestHandler(t *testing.T) (*Handler, *memory.Store) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(upstreamJSON))
	}))
	t.Cleanup(upstream.Close)

	store := memory.New()
	source := holidays.NewSource(zap.NewNop(), holidays.WithURL(upstream.URL))
	exporter := ics.NewWriter(ics.WithHostname("test.local"))

	h, err := NewHandler(context.Background(), store, source, exporter, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create handler: %v", err)
	}
	return h, store
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

// =============================================================================
// TOGGLE
// =============================================================================

func TestToggleDay_SelectsAndPersists(t *testing.T) {
	h, store := newTestHandler(t)
	router := NewRouter(h, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/leave/toggle",
		ToggleRequest{Date: calendar.NewDate(2024, time.June, 10)})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	resp := decode[ToggleResponse](t, rec)
	if !resp.Selected || resp.Summary.Used != 1 {
		t.Errorf("response = %+v", resp)
	}

	// The session must be persisted after the mutation.
	session, found, err := store.LoadSession(context.Background())
	if err != nil || !found {
		t.Fatalf("expected persisted session, found=%v err=%v", found, err)
	}
	if len(session.Selected) != 1 || session.Selected[0] != calendar.NewDate(2024, time.June, 10) {
		t.Errorf("persisted selection = %v", session.Selected)
	}
}

func TestToggleDay_RejectsHoliday(t *testing.T) {
	// GIVEN: Christmas Day is a bank holiday in the session division
	// WHEN: the client tries to select it
	// THEN: 409, no state change, regardless of remaining allowance

	h, store := newTestHandler(t)
	router := NewRouter(h, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/leave/toggle",
		ToggleRequest{Date: calendar.NewDate(2024, time.December, 25)})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body = %s", rec.Code, rec.Body)
	}
	errResp := decode[ErrorResponse](t, rec)
	if !strings.Contains(errResp.Details, "bank holiday") {
		t.Errorf("details = %q", errResp.Details)
	}

	if _, found, _ := store.LoadSession(context.Background()); found {
		t.Error("rejected toggle must not persist anything")
	}
}

func TestToggleDay_RejectsOverAllowance(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, nil)

	// Shrink the allowance to 1, fill it, then try one more.
	doJSON(t, router, http.MethodPut, "/api/leave/allowance", AllowanceRequest{Limit: 1})
	doJSON(t, router, http.MethodPost, "/api/leave/toggle",
		ToggleRequest{Date: calendar.NewDate(2024, time.June, 10)})

	rec := doJSON(t, router, http.MethodPost, "/api/leave/toggle",
		ToggleRequest{Date: calendar.NewDate(2024, time.June, 11)})

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body = %s", rec.Code, rec.Body)
	}

	// Deselecting within the full allowance still works.
	rec = doJSON(t, router, http.MethodPost, "/api/leave/toggle",
		ToggleRequest{Date: calendar.NewDate(2024, time.June, 10)})
	if rec.Code != http.StatusOK {
		t.Fatalf("deselect status = %d", rec.Code)
	}
}

func TestToggleDay_PersistFailureRollsBack(t *testing.T) {
	// GIVEN: an over-allowance session (limit below usage) and a store
	//        that fails every save
	// WHEN: a deselection toggle fails to persist
	// THEN: 500 and the in-memory selection is exactly as before, even
	//       though re-adding the day would be blocked by the allowance

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(upstreamJSON))
	}))
	t.Cleanup(upstream.Close)

	store := &failingStore{Store: memory.New()}
	seed := leave.Session{
		Division:  holidays.EnglandAndWales,
		Year:      2024,
		Allowance: 1,
		Selected: []calendar.Date{
			calendar.NewDate(2024, time.June, 10),
			calendar.NewDate(2024, time.June, 11),
		},
	}
	if err := store.SaveSession(context.Background(), seed); err != nil {
		t.Fatalf("failed to seed session: %v", err)
	}

	source := holidays.NewSource(zap.NewNop(), holidays.WithURL(upstream.URL))
	h, err := NewHandler(context.Background(), store, source, ics.NewWriter(), zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to create handler: %v", err)
	}
	router := NewRouter(h, nil)
	store.failSaves = true

	rec := doJSON(t, router, http.MethodPost, "/api/leave/toggle",
		ToggleRequest{Date: calendar.NewDate(2024, time.June, 10)})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500; body = %s", rec.Code, rec.Body)
	}

	dto := decode[LeaveDTO](t, doJSON(t, router, http.MethodGet, "/api/leave", nil))
	if dto.Summary.Used != 2 || !dto.Summary.OverAllowance {
		t.Errorf("summary = %+v, want used=2 over_allowance=true", dto.Summary)
	}
	if !reflect.DeepEqual(dto.Selected, seed.Selected) {
		t.Errorf("selection = %v, want %v restored verbatim", dto.Selected, seed.Selected)
	}
}

func TestToggleDay_MissingDate(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, nil)

	rec := doJSON(t, router, http.MethodPost, "/api/leave/toggle", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

// =============================================================================
// RESET AND ALLOWANCE
// =============================================================================

func TestResetYear(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, nil)

	for _, d := range []calendar.Date{
		calendar.NewDate(2024, time.March, 1),
		calendar.NewDate(2024, time.March, 2),
		calendar.NewDate(2025, time.January, 5),
	} {
		doJSON(t, router, http.MethodPost, "/api/leave/toggle", ToggleRequest{Date: d})
	}

	rec := doJSON(t, router, http.MethodPost, "/api/leave/reset", ResetRequest{Year: 2024})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decode[ResetResponse](t, rec)
	if resp.Removed != 2 || resp.Summary.Used != 1 {
		t.Errorf("response = %+v, want removed=2 used=1", resp)
	}
}

func TestSetAllowance_BelowUsageReportsOverAllowance(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, nil)

	doJSON(t, router, http.MethodPost, "/api/leave/toggle",
		ToggleRequest{Date: calendar.NewDate(2024, time.June, 10)})
	doJSON(t, router, http.MethodPost, "/api/leave/toggle",
		ToggleRequest{Date: calendar.NewDate(2024, time.June, 11)})

	rec := doJSON(t, router, http.MethodPut, "/api/leave/allowance", AllowanceRequest{Limit: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	summary := decode[leave.Summary](t, rec)
	if summary.Used != 2 || !summary.OverAllowance {
		t.Errorf("summary = %+v, want used=2 over_allowance=true", summary)
	}
}

// =============================================================================
// GRID AND SUMMARY READS
// =============================================================================

func TestGetMonthGrid_Annotations(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, nil)

	doJSON(t, router, http.MethodPost, "/api/leave/toggle",
		ToggleRequest{Date: calendar.NewDate(2024, time.December, 10)})

	rec := doJSON(t, router, http.MethodGet, "/api/calendar/2024/12", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	month := decode[MonthDTO](t, rec)
	if len(month.Days) != 31 {
		t.Fatalf("December has 31 days, got %d", len(month.Days))
	}
	if !month.Days[24].IsHoliday || month.Days[24].HolidayTitle != "Christmas Day" {
		t.Errorf("Dec 25 should be flagged as a holiday: %+v", month.Days[24])
	}
	if !month.Days[9].IsSelected {
		t.Errorf("Dec 10 should be flagged as selected: %+v", month.Days[9])
	}
}

func TestGetLeave_MonthSummaries(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, nil)

	doJSON(t, router, http.MethodPut, "/api/session", SessionRequest{Year: 2024})
	for _, day := range []int{1, 2, 3, 9} {
		doJSON(t, router, http.MethodPost, "/api/leave/toggle",
			ToggleRequest{Date: calendar.NewDate(2024, time.March, day)})
	}

	rec := doJSON(t, router, http.MethodGet, "/api/leave", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	dto := decode[LeaveDTO](t, rec)
	if len(dto.Months) != 1 {
		t.Fatalf("expected one month summary, got %+v", dto.Months)
	}
	if dto.Months[0].Formatted != "March: 1st - 3rd, 9th" {
		t.Errorf("formatted = %q", dto.Months[0].Formatted)
	}
}

func TestUpdateSession_UnknownDivision(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, nil)

	rec := doJSON(t, router, http.MethodPut, "/api/session",
		SessionRequest{Division: holidays.Division("narnia")})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateSession_InvalidYear(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, nil)

	for _, year := range []int{-2024, 10000} {
		rec := doJSON(t, router, http.MethodPut, "/api/session", SessionRequest{Year: year})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("year %d: status = %d, want 400", year, rec.Code)
		}
	}
}

// =============================================================================
// EXPORT
// =============================================================================

func TestExportYear(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, nil)

	for _, day := range []int{10, 11, 13} {
		doJSON(t, router, http.MethodPost, "/api/leave/toggle",
			ToggleRequest{Date: calendar.NewDate(2024, time.June, day)})
	}
	// Another year's selection must not leak into the 2024 export.
	doJSON(t, router, http.MethodPost, "/api/leave/toggle",
		ToggleRequest{Date: calendar.NewDate(2025, time.June, 2)})

	rec := doJSON(t, router, http.MethodGet, "/api/export/2024", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "annual-leave-2024.ics") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	doc := rec.Body.String()
	if got := strings.Count(doc, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("expected 2 events in the 2024 export, got %d\n%s", got, doc)
	}
	if strings.Contains(doc, "20250602") {
		t.Error("2025 selection leaked into the 2024 export")
	}
}

func TestExportYear_InvalidYear(t *testing.T) {
	h, _ := newTestHandler(t)
	router := NewRouter(h, nil)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/export/%s", "abc"), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
