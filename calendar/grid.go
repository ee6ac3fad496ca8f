/*
grid.go - Month grid projection

PURPOSE:
  Builds the annotated day sequence a calendar view renders: one row per
  day of the month, flagged with holiday and selection status. This is a
  pure projection of its three inputs (month, holiday lookup, selection
  set) - it holds no state and caches nothing, so there is no grid to
  invalidate when a selection or the holiday snapshot changes. Callers
  simply rebuild.

SEE ALSO:
  - date.go: Date value type and DaysInMonth
  - leave: the selection set that feeds IsSelected
  - holidays: the lookup that feeds IsHoliday
*/
package calendar

import "time"

// =============================================================================
// VIEW ROWS
// =============================================================================

// Day is one row of a rendered month: a date plus its annotations.
// Derived data - never persisted, recomputed on every input change.
type Day struct {
	Date         Date
	IsHoliday    bool
	IsSelected   bool
	HolidayTitle string
}

// Month is a fully annotated month of days, 1st through the last.
type Month struct {
	Year  int
	Month time.Month
	Days  []Day
}

// =============================================================================
// GRID BUILDER
// =============================================================================

// BuildMonth produces the annotated day sequence for a month.
//
// For every day d in [1, DaysInMonth]:
//   - IsHoliday is true iff the date is a key in holidayLookup
//   - IsSelected is true iff the date is a member of selected
//
// Deterministic for given inputs; nil maps are treated as empty.
func BuildMonth(year int, month time.Month, holidayLookup map[Date]string, selected map[Date]struct{}) Month {
	total := DaysInMonth(year, month)
	days := make([]Day, 0, total)

	for dom := 1; dom <= total; dom++ {
		date := Date{Year: year, Month: month, Day: dom}
		title, isHoliday := holidayLookup[date]
		_, isSelected := selected[date]

		days = append(days, Day{
			Date:         date,
			IsHoliday:    isHoliday,
			IsSelected:   isSelected,
			HolidayTitle: title,
		})
	}

	return Month{Year: year, Month: month, Days: days}
}

// BuildYear builds all twelve month grids for a year. Convenience for
// callers that render a full-year view.
func BuildYear(year int, holidayLookup map[Date]string, selected map[Date]struct{}) []Month {
	months := make([]Month, 0, 12)
	for m := time.January; m <= time.December; m++ {
		months = append(months, BuildMonth(year, m, holidayLookup, selected))
	}
	return months
}
