/*
Package calendar provides calendar-day values and month grids.

PURPOSE:
  This package owns the notion of "a day on the wall calendar". A Date
  is identified purely by (year, month, day) - no time of day, no
  timezone. Two Dates are equal iff they denote the same Gregorian day,
  which makes Date safe to use as a map key and immune to the classic
  bug where a date shifts by one when formatted in a different zone.

KEY CONCEPTS IN THIS FILE (date.go):
  - Date: comparable calendar-day value
  - ISO parsing/formatting (2006-01-02), lossless JSON round-trip
  - Day arithmetic (AddDays, Next) and ordering

DESIGN PRINCIPLES:
  1. Value semantics: Date is a small comparable struct, never a pointer
  2. No hidden clock: Today() is the only function that reads time.Now
  3. Timezone independence: all conversions go through UTC midnight

SEE ALSO:
  - grid.go: Month grid projection built from Dates
*/
package calendar

import (
	"fmt"
	"time"
)

// ISOFormat is the wire format for calendar days, per ISO 8601.
const ISOFormat = "2006-01-02"

// =============================================================================
// DATE - Calendar-day value
// =============================================================================

// Date identifies a single day in the local calendar. The zero value is
// not a valid date; use IsZero to detect it.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate constructs a Date. Out-of-range components are normalized the
// way time.Date normalizes them (e.g. month 13 rolls into the next year).
func NewDate(year int, month time.Month, day int) Date {
	return FromTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// FromTime extracts the calendar day from a time.Time, in that value's
// own location. The wall-clock day is what matters, not the instant.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current calendar day in the local timezone.
func Today() Date {
	return FromTime(time.Now())
}

// ParseISO parses a 2006-01-02 string into a Date.
func ParseISO(s string) (Date, error) {
	t, err := time.Parse(ISOFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid calendar date %q: %w", s, err)
	}
	return FromTime(t), nil
}

// ISO formats the date as 2006-01-02.
func (d Date) ISO() string {
	return d.Time().Format(ISOFormat)
}

// Time returns the date as UTC midnight. Only used for arithmetic and
// formatting; the instant itself carries no meaning.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool   { return d == Date{} }
func (d Date) String() string { return d.ISO() }

// =============================================================================
// ORDERING AND ARITHMETIC
// =============================================================================

// Before reports whether d falls strictly before other.
func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

// After reports whether d falls strictly after other.
func (d Date) After(other Date) bool { return other.Before(d) }

// Compare returns -1, 0 or +1, suitable for slices.SortFunc.
func (d Date) Compare(other Date) int {
	switch {
	case d.Before(other):
		return -1
	case other.Before(d):
		return +1
	default:
		return 0
	}
}

// AddDays returns the date n days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

// Next returns the following calendar day.
func (d Date) Next() Date { return d.AddDays(1) }

// Weekday returns the day of week.
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// =============================================================================
// JSON - Dates travel as ISO strings, never as timestamps
// =============================================================================

// MarshalJSON encodes the date as "2006-01-02". Serializing as a bare
// calendar string is what keeps persisted selections from shifting a
// day when they cross a timezone boundary.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.ISO() + `"`), nil
}

// UnmarshalJSON decodes a "2006-01-02" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("calendar date must be a JSON string, got %s", data)
	}
	parsed, err := ParseISO(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// MONTH HELPERS
// =============================================================================

// DaysInMonth returns the number of days in the given month, handling
// leap Februaries. Computed as one day before the first of the next
// month, so year boundaries (December -> January) stay exact.
func DaysInMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// FirstWeekday returns the weekday of the 1st of the month, used by
// grid renderers to offset the first row.
func FirstWeekday(year int, month time.Month) time.Weekday {
	return NewDate(year, month, 1).Weekday()
}

// AvailableYears returns the current year and the next n-1 years, the
// range the planner offers for selection.
func AvailableYears(n int) []int {
	years := make([]int, n)
	current := Today().Year
	for i := range years {
		years[i] = current + i
	}
	return years
}
