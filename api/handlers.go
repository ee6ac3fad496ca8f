/*
handlers.go - HTTP handlers for the leave planner

PURPOSE:
  Exposes the leave-calendar engine via REST. Handles HTTP
  request/response, JSON serialization, and delegates to the domain
  packages.

ENDPOINTS:
  Holidays:
    GET  /api/holidays                 Bank holidays for the session division
    GET  /api/holidays/upcoming        Next bank holidays (?limit=)

  Calendar:
    GET  /api/calendar/{year}          All twelve annotated month grids
    GET  /api/calendar/{year}/{month}  One annotated month grid

  Leave:
    GET  /api/leave                    Allowance summary + run summary
    POST /api/leave/toggle             Toggle one day
    POST /api/leave/reset              Clear one year's selection
    PUT  /api/leave/allowance          Replace the allowance limit

  Session:
    PUT  /api/session                  Change division / viewed year

  Export:
    GET  /api/export/{year}            ICS download for one year

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: invalid input
  - 409: allowance exceeded, holiday not selectable
  - 502: upstream bank-holiday fetch failed
  - 500: internal errors

CONCURRENCY:
  The planner assumes a single logical writer. HTTP is concurrent, so
  the handler serializes every state access behind one mutex; reads are
  cheap (the whole state is one user's selection).

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/AntObr/holiday-planner/calendar"
	"github.com/AntObr/holiday-planner/holidays"
	"github.com/AntObr/holiday-planner/ics"
	"github.com/AntObr/holiday-planner/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// SessionStore is the persistence seam the handler saves through.
// store/sqlite implements it for real; store/memory for tests.
type SessionStore interface {
	SaveSession(ctx context.Context, session leave.Session) error
	LoadSession(ctx context.Context) (leave.Session, bool, error)
	Close() error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	store    SessionStore
	source   *holidays.Source
	exporter *ics.Writer
	logger   *zap.Logger

	// mu guards planner, division and year. The planner itself assumes
	// a single logical writer; HTTP is concurrent, so all access is
	// serialized here.
	mu       sync.Mutex
	planner  *leave.Planner
	division holidays.Division
	year     int
}

// HandlerOption customizes a Handler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	defaultAllowance int
}

// WithDefaultAllowance sets the allowance a first-visit session starts
// with, instead of the package default.
func WithDefaultAllowance(n int) HandlerOption {
	return func(c *handlerConfig) { c.defaultAllowance = n }
}

// NewHandler restores the session from the store (or starts from the
// defaults) and wires the holiday source and exporter.
func NewHandler(ctx context.Context, store SessionStore, source *holidays.Source, exporter *ics.Writer, logger *zap.Logger, opts ...HandlerOption) (*Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := handlerConfig{defaultAllowance: leave.DefaultAllowance}
	for _, opt := range opts {
		opt(&cfg)
	}

	session, found, err := store.LoadSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if !found {
		session = leave.DefaultSession()
		session.Allowance = cfg.defaultAllowance
	}

	logger.Info("session restored",
		zap.String("division", string(session.Division)),
		zap.Int("year", session.Year),
		zap.Int("allowance", session.Allowance),
		zap.Int("selected", len(session.Selected)))

	return &Handler{
		store:    store,
		source:   source,
		exporter: exporter,
		logger:   logger,
		planner:  leave.Restore(session.Allowance, session.Selected),
		division: session.Division,
		year:     session.Year,
	}, nil
}

// persist snapshots the current state into the store. Called with the
// handler mutex held, after every successful mutation.
func (h *Handler) persist(ctx context.Context) error {
	return h.store.SaveSession(ctx, leave.Snapshot(h.planner, h.division, h.year))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns the session division's bank holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	division := h.division
	h.mu.Unlock()

	snap, err := h.source.BankHolidays(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch bank holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTOs(snap.Events(division)))
}

// UpcomingHolidays returns the next bank holidays for the session
// division.
// GET /api/holidays/upcoming?limit=5
func (h *Handler) UpcomingHolidays(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	division := h.division
	h.mu.Unlock()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer", err)
			return
		}
		limit = n
	}

	events, err := h.source.Upcoming(r.Context(), division, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch bank holidays", err)
		return
	}
	writeJSON(w, http.StatusOK, toHolidayDTOs(events))
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetYearGrid returns all twelve annotated months of a year.
// GET /api/calendar/{year}
func (h *Handler) GetYearGrid(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	lookup, err := h.divisionLookup(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch bank holidays", err)
		return
	}

	h.mu.Lock()
	selected := h.planner.SelectedSet()
	h.mu.Unlock()

	months := calendar.BuildYear(year, lookup, selected)
	dtos := make([]MonthDTO, len(months))
	for i, m := range months {
		dtos[i] = toMonthDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMonthGrid returns one annotated month.
// GET /api/calendar/{year}/{month}
func (h *Handler) GetMonthGrid(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	monthNum, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		writeError(w, http.StatusBadRequest, "Month must be 1-12", err)
		return
	}

	lookup, err := h.divisionLookup(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch bank holidays", err)
		return
	}

	h.mu.Lock()
	selected := h.planner.SelectedSet()
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, toMonthDTO(
		calendar.BuildMonth(year, time.Month(monthNum), lookup, selected)))
}

func (h *Handler) divisionLookup(ctx context.Context) (map[calendar.Date]string, error) {
	h.mu.Lock()
	division := h.division
	h.mu.Unlock()
	return h.source.DivisionLookup(ctx, division)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// GetLeave returns the allowance summary plus the viewed year's
// per-month run summary.
// GET /api/leave
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	selected := h.planner.Selected()
	writeJSON(w, http.StatusOK, LeaveDTO{
		Division: h.division,
		Year:     h.year,
		Summary:  h.planner.Summarize(),
		Selected: selected,
		Months:   toMonthSummaryDTOs(leave.GroupByMonth(selected, h.year)),
	})
}

// ToggleDay toggles one day's selection, rejecting bank holidays and
// allowance overruns with 409 and no state change.
// POST /api/leave/toggle
func (h *Handler) ToggleDay(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required", nil)
		return
	}

	// Holidays are never selectable, regardless of allowance. The
	// planner has no holiday knowledge, so the check happens here,
	// against the same lookup the grid is built from.
	lookup, err := h.divisionLookup(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch bank holidays", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if title, isHoliday := lookup[req.Date]; isHoliday {
		holidayErr := &leave.HolidayError{Date: req.Date, Title: title}
		writeError(w, http.StatusConflict, "Bank holidays cannot be selected", holidayErr)
		return
	}

	// Captured before the mutation. A failed persist restores this
	// verbatim via leave.Restore rather than re-toggling: in an
	// over-allowance session the allowance gate would reject re-adding
	// a deselected day and leave memory and store disagreeing.
	priorSelected := h.planner.Selected()

	selected, err := h.planner.Toggle(req.Date)
	if err != nil {
		writeError(w, http.StatusConflict, "Leave allowance exceeded", err)
		return
	}

	if err := h.persist(r.Context()); err != nil {
		h.planner = leave.Restore(h.planner.Limit(), priorSelected)
		writeError(w, http.StatusInternalServerError, "Failed to save session", err)
		return
	}

	writeJSON(w, http.StatusOK, ToggleResponse{
		Date:     req.Date,
		Selected: selected,
		Summary:  h.planner.Summarize(),
	})
}

// ResetYear removes the given year's selection, other years untouched.
// POST /api/leave/reset
func (h *Handler) ResetYear(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Year == 0 {
		writeError(w, http.StatusBadRequest, "year is required", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	removed := h.planner.Reset(req.Year)
	if err := h.persist(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save session", err)
		return
	}

	h.logger.Info("year selection reset",
		zap.Int("year", req.Year), zap.Int("removed", removed))

	writeJSON(w, http.StatusOK, ResetResponse{
		Year:    req.Year,
		Removed: removed,
		Summary: h.planner.Summarize(),
	})
}

// SetAllowance replaces the allowance limit. Lowering it below current
// usage is permitted; the summary reports over_allowance instead of
// trimming the selection.
// PUT /api/leave/allowance
func (h *Handler) SetAllowance(w http.ResponseWriter, r *http.Request) {
	var req AllowanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must be non-negative", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.planner.SetLimit(req.Limit)
	if err := h.persist(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save session", err)
		return
	}

	writeJSON(w, http.StatusOK, h.planner.Summarize())
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// UpdateSession changes the division and/or viewed year.
// PUT /api/session
func (h *Handler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Division != "" && !req.Division.Valid() {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("unknown division %q", req.Division), nil)
		return
	}
	// Zero means "keep the current year"; anything else must be a
	// four-digit calendar year.
	if req.Year != 0 && (req.Year < 1 || req.Year > 9999) {
		writeError(w, http.StatusBadRequest, "Year must be between 1 and 9999", nil)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if req.Division != "" {
		h.division = req.Division
	}
	if req.Year != 0 {
		h.year = req.Year
	}
	if err := h.persist(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save session", err)
		return
	}

	writeJSON(w, http.StatusOK, SessionRequest{Division: h.division, Year: h.year})
}

// =============================================================================
// EXPORT HANDLER
// =============================================================================

// ExportYear streams the year's selection as an ICS download.
// GET /api/export/{year}
func (h *Handler) ExportYear(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	h.mu.Lock()
	selected := h.planner.SelectedInYear(year)
	division := h.division
	h.mu.Unlock()

	doc := h.exporter.BuildDocument(selected, division, year)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s", ics.Filename(year)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(doc)); err != nil {
		h.logger.Warn("failed to write export", zap.Error(err))
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
