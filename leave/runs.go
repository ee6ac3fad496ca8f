/*
runs.go - Consecutive-day run grouping and formatting

PURPOSE:
  Converts a scattered selection of days into maximal consecutive runs,
  the shape both the human-readable summary ("March: 1st - 4th, 9th")
  and the calendar export consume. Pure functions, no state.

TWO GROUPINGS:
  - GroupByMonth: per-month runs over day-of-month numbers, for the
    on-screen summary. Runs never cross a month boundary here because
    the summary is structured by month.
  - The export groups across month boundaries instead; that variant
    lives in the ics package because the interchange format has no
    monthly structure.

SEE ALSO:
  - planner.go: the selection these functions are fed from
  - ics: cross-month grouping for export
*/
package leave

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AntObr/holiday-planner/calendar"
)

// =============================================================================
// RUNS
// =============================================================================

// Run is an inclusive [Start, End] range of day-of-month numbers.
// Single days are Start == End, not a special case.
type Run struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// MonthRuns is one month's runs, in ascending day order.
type MonthRuns struct {
	Month time.Month `json:"month"`
	Runs  []Run      `json:"runs"`
}

// GroupConsecutive collapses ascending unique day numbers into maximal
// consecutive runs in a single scan:
//
//	[5,6,7,10,15,16] -> [{5,7},{10,10},{15,16}]
func GroupConsecutive(days []int) []Run {
	if len(days) == 0 {
		return nil
	}
	runs := make([]Run, 0, len(days))
	current := Run{Start: days[0], End: days[0]}
	for _, d := range days[1:] {
		if d == current.End+1 {
			current.End = d
			continue
		}
		runs = append(runs, current)
		current = Run{Start: d, End: d}
	}
	return append(runs, current)
}

// GroupByMonth partitions one year's selected dates by month, sorts
// each partition, and groups it into runs. Months appear in calendar
// order (January..December), not selection order; months with no
// selection are omitted.
func GroupByMonth(dates []calendar.Date, year int) []MonthRuns {
	byMonth := make(map[time.Month][]int)
	for _, d := range dates {
		if d.Year == year {
			byMonth[d.Month] = append(byMonth[d.Month], d.Day)
		}
	}

	var out []MonthRuns
	for m := time.January; m <= time.December; m++ {
		days, ok := byMonth[m]
		if !ok {
			continue
		}
		sort.Ints(days)
		out = append(out, MonthRuns{Month: m, Runs: GroupConsecutive(days)})
	}
	return out
}

// =============================================================================
// FORMATTING
// =============================================================================

// Ordinal renders a day-of-month with its English suffix. The teens are
// the trap: 11, 12 and 13 take "th" even though they end in 1, 2, 3,
// so the check is on day mod 100 before day mod 10.
func Ordinal(day int) string {
	switch day % 100 {
	case 11, 12, 13:
		return fmt.Sprintf("%dth", day)
	}
	switch day % 10 {
	case 1:
		return fmt.Sprintf("%dst", day)
	case 2:
		return fmt.Sprintf("%dnd", day)
	case 3:
		return fmt.Sprintf("%drd", day)
	}
	return fmt.Sprintf("%dth", day)
}

// FormatRun renders a run as "9th" or "1st - 4th".
func FormatRun(r Run) string {
	if r.Start == r.End {
		return Ordinal(r.Start)
	}
	return Ordinal(r.Start) + " - " + Ordinal(r.End)
}

// FormatMonth renders one month's runs as "March: 1st - 4th, 9th".
func FormatMonth(mr MonthRuns) string {
	parts := make([]string, len(mr.Runs))
	for i, r := range mr.Runs {
		parts[i] = FormatRun(r)
	}
	return mr.Month.String() + ": " + strings.Join(parts, ", ")
}

// FormatYear renders the whole year's selection, one line per month.
func FormatYear(dates []calendar.Date, year int) []string {
	grouped := GroupByMonth(dates, year)
	lines := make([]string, len(grouped))
	for i, mr := range grouped {
		lines[i] = FormatMonth(mr)
	}
	return lines
}
