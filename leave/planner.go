/*
Package leave owns the leave selection and its allowance invariant.

PURPOSE:
  A Planner holds the set of selected leave days and the annual
  allowance ceiling. Every mutation goes through Toggle/Reset/SetLimit,
  and after any successful Toggle the invariant |selected| <= limit
  holds. Used-days is always derived from the set - it is never stored
  as a separate counter that could drift.

KEY CONCEPTS IN THIS FILE (planner.go):
  - Planner: selection set + allowance limit
  - Toggle: the single mutation path for individual days
  - Sentinel errors for allowance and holiday rejections

INVARIANTS:
  1. |selected| <= limit after every successful Toggle (removal is
     always permitted; it only decreases usage)
  2. A rejected operation changes nothing - no partial mutation
  3. SetLimit never deselects: lowering the limit below current usage
     leaves an over-allowance state that callers must surface, not a
     silently trimmed selection

HOLIDAYS:
  The Planner has no holiday knowledge. The boundary that calls Toggle
  (the API handler) checks the grid's holiday flag first and rejects
  with ErrHolidayNotSelectable; the error types live here so every
  front-end shares them.

SEE ALSO:
  - runs.go: consecutive-run grouping over the selection
  - summary.go: allowance usage summary
  - session.go: the persisted shape of this state
*/
package leave

import (
	"errors"
	"fmt"
	"sort"

	"github.com/AntObr/holiday-planner/calendar"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrAllowanceExceeded is returned when a Toggle would select a day
	// beyond the allowance. The selection is unchanged.
	ErrAllowanceExceeded = errors.New("leave allowance exceeded")

	// ErrHolidayNotSelectable is returned by the calling boundary when a
	// Toggle targets a bank holiday. Holidays are never selectable,
	// regardless of remaining allowance.
	ErrHolidayNotSelectable = errors.New("bank holidays cannot be selected as leave")
)

// AllowanceError reports a Toggle rejected by the allowance ceiling.
type AllowanceError struct {
	Limit int
	Used  int
}

func (e *AllowanceError) Error() string {
	return fmt.Sprintf("leave allowance exceeded: %d of %d days used", e.Used, e.Limit)
}

func (e *AllowanceError) Unwrap() error { return ErrAllowanceExceeded }

// HolidayError reports a Toggle rejected because the day is a holiday.
type HolidayError struct {
	Date  calendar.Date
	Title string
}

func (e *HolidayError) Error() string {
	return fmt.Sprintf("%s is a bank holiday (%s) and cannot be selected as leave", e.Date, e.Title)
}

func (e *HolidayError) Unwrap() error { return ErrHolidayNotSelectable }

// =============================================================================
// PLANNER
// =============================================================================

// Planner is the leave selection state for one user session. Not safe
// for concurrent writers; the design assumes a single logical writer
// and callers serialize access (the API handler holds a mutex).
type Planner struct {
	limit    int
	selected map[calendar.Date]struct{}
}

// NewPlanner creates an empty planner with the given allowance.
// Negative limits are clamped to zero.
func NewPlanner(limit int) *Planner {
	if limit < 0 {
		limit = 0
	}
	return &Planner{limit: limit, selected: make(map[calendar.Date]struct{})}
}

// Restore rebuilds a planner from persisted state. Dates are restored
// verbatim: a persisted over-allowance selection stays over-allowance.
func Restore(limit int, selected []calendar.Date) *Planner {
	p := NewPlanner(limit)
	for _, d := range selected {
		p.selected[d] = struct{}{}
	}
	return p
}

// Toggle flips one day's selection.
//
// Removing is always permitted. Adding is rejected with an
// AllowanceError when usage has reached the limit; the selection is
// left exactly as it was. Returns whether the day is selected after
// the call.
func (p *Planner) Toggle(date calendar.Date) (selected bool, err error) {
	if _, ok := p.selected[date]; ok {
		delete(p.selected, date)
		return false, nil
	}
	if len(p.selected) >= p.limit {
		return false, &AllowanceError{Limit: p.limit, Used: len(p.selected)}
	}
	p.selected[date] = struct{}{}
	return true, nil
}

// Reset removes every selected day in the given calendar year, leaving
// other years untouched.
func (p *Planner) Reset(year int) (removed int) {
	for d := range p.selected {
		if d.Year == year {
			delete(p.selected, d)
			removed++
		}
	}
	return removed
}

// SetLimit replaces the allowance ceiling. It never deselects: if the
// new limit is below current usage the planner is over allowance until
// the user removes days, and the invariant applies only to future
// Toggle calls. Negative limits are clamped to zero.
func (p *Planner) SetLimit(limit int) {
	if limit < 0 {
		limit = 0
	}
	p.limit = limit
}

// =============================================================================
// READ SIDE - all derived from the set, nothing cached
// =============================================================================

// Limit returns the allowance ceiling.
func (p *Planner) Limit() int { return p.limit }

// Used returns the number of selected days across all years.
func (p *Planner) Used() int { return len(p.selected) }

// Remaining returns the unspent allowance, never negative.
func (p *Planner) Remaining() int {
	if r := p.limit - len(p.selected); r > 0 {
		return r
	}
	return 0
}

// OverAllowance reports whether usage exceeds the limit, which is
// reachable only by lowering the limit below current usage.
func (p *Planner) OverAllowance() bool { return len(p.selected) > p.limit }

// Contains reports whether the day is selected.
func (p *Planner) Contains(date calendar.Date) bool {
	_, ok := p.selected[date]
	return ok
}

// Selected returns all selected days sorted ascending.
func (p *Planner) Selected() []calendar.Date {
	out := make([]calendar.Date, 0, len(p.selected))
	for d := range p.selected {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// SelectedSet returns the selection as a set, the shape the grid
// builder consumes. The returned map is a copy.
func (p *Planner) SelectedSet() map[calendar.Date]struct{} {
	out := make(map[calendar.Date]struct{}, len(p.selected))
	for d := range p.selected {
		out[d] = struct{}{}
	}
	return out
}

// SelectedInYear returns the selected days within one year, ascending.
func (p *Planner) SelectedInYear(year int) []calendar.Date {
	var out []calendar.Date
	for d := range p.selected {
		if d.Year == year {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
