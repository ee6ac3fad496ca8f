/*
Package ics renders selected leave as an iCalendar document.

PURPOSE:
  Turns a selection of calendar days into an RFC 5545 text document:
  one all-day VEVENT per maximal run of consecutive days, wrapped in a
  fixed VCALENDAR header/footer. The run grouping here spans month
  boundaries - unlike the on-screen summary, the interchange format has
  no monthly structure, so March 31st and April 1st merge into one
  event.

FORMAT NOTES:
  - All-day events use DTSTART;VALUE=DATE inclusive and DTEND exclusive
    (the day after the last selected day), per the iCalendar convention.
  - Every line ends in CRLF, never a bare newline.
  - UIDs must be globally unique across repeated exports of the same
    selection, so they carry a random component plus a host-scoped
    namespace and are never derived from the date range alone.

SEE ALSO:
  - leave: per-month grouping for the on-screen summary
*/
package ics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AntObr/holiday-planner/calendar"
	"github.com/AntObr/holiday-planner/holidays"
)

const (
	// ProductID identifies this exporter in the VCALENDAR header.
	ProductID = "-//Holiday Planner//EN"

	// CalendarName is the display name calendar apps show after import.
	CalendarName = "Annual Leave"

	// DisplayTimezone is advisory only; the events are date-valued.
	DisplayTimezone = "Europe/London"

	// EventSummary is the fixed SUMMARY of every exported event.
	EventSummary = "Annual Leave"

	crlf        = "\r\n"
	dateFormat  = "20060102"
	stampFormat = "20060102T150405Z"
	defaultHost = "holiday-planner.local"
)

// Filename is the download name for a year's export.
func Filename(year int) string {
	return fmt.Sprintf("annual-leave-%d.ics", year)
}

// =============================================================================
// WRITER
// =============================================================================

// Writer builds iCalendar documents. The clock and UID source are
// injectable so tests get stable DTSTAMPs and observable UIDs.
type Writer struct {
	hostname string
	now      func() time.Time
	newUID   func() string
}

// Option customizes a Writer.
type Option func(*Writer)

// WithHostname sets the UID namespace suffix.
func WithHostname(host string) Option { return func(w *Writer) { w.hostname = host } }

// WithClock overrides the DTSTAMP clock.
func WithClock(now func() time.Time) Option { return func(w *Writer) { w.now = now } }

// WithUIDSource overrides the random UID component.
func WithUIDSource(newUID func() string) Option { return func(w *Writer) { w.newUID = newUID } }

// NewWriter creates a Writer with real clock and random UIDs.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		hostname: defaultHost,
		now:      time.Now,
		newUID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// =============================================================================
// DOCUMENT
// =============================================================================

// BuildDocument renders the selection as a complete iCalendar document.
//
// The selection is sorted globally and grouped into maximal consecutive
// runs across all years present; filtering to one year is the caller's
// choice, made before calling. division and year only label the event
// descriptions.
func (w *Writer) BuildDocument(selected []calendar.Date, division holidays.Division, year int) string {
	runs := groupRuns(selected)
	stamp := w.now().UTC().Format(stampFormat)

	var b strings.Builder
	line(&b, "BEGIN:VCALENDAR")
	line(&b, "VERSION:2.0")
	line(&b, "PRODID:"+ProductID)
	line(&b, "CALSCALE:GREGORIAN")
	line(&b, "METHOD:PUBLISH")
	line(&b, "X-WR-CALNAME:"+CalendarName)
	line(&b, "X-WR-TIMEZONE:"+DisplayTimezone)

	for _, r := range runs {
		line(&b, "BEGIN:VEVENT")
		line(&b, "DTSTAMP:"+stamp)
		line(&b, "DTSTART;VALUE=DATE:"+r.start.Time().Format(dateFormat))
		// DTEND is exclusive: the day after the last selected day.
		line(&b, "DTEND;VALUE=DATE:"+r.end.Next().Time().Format(dateFormat))
		line(&b, "UID:"+w.uid())
		line(&b, "SUMMARY:"+EventSummary)
		line(&b, fmt.Sprintf("DESCRIPTION:Annual Leave for %s in %d", division.DisplayName(), year))
		line(&b, "TRANSP:TRANSPARENT")
		line(&b, "SEQUENCE:0")
		line(&b, "END:VEVENT")
	}

	b.WriteString("END:VCALENDAR")
	return b.String()
}

func (w *Writer) uid() string {
	return fmt.Sprintf("holiday-planner-%s@%s", w.newUID(), w.hostname)
}

func line(b *strings.Builder, s string) {
	b.WriteString(s)
	b.WriteString(crlf)
}

// =============================================================================
// RUN GROUPING - across month boundaries
// =============================================================================

// dateRun is an inclusive [start, end] range of calendar days.
type dateRun struct {
	start, end calendar.Date
}

// groupRuns sorts the selection and collapses it into maximal runs of
// consecutive calendar days. Duplicates are tolerated and ignored.
func groupRuns(selected []calendar.Date) []dateRun {
	if len(selected) == 0 {
		return nil
	}
	sorted := make([]calendar.Date, len(selected))
	copy(sorted, selected)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	runs := make([]dateRun, 0, len(sorted))
	current := dateRun{start: sorted[0], end: sorted[0]}
	for _, d := range sorted[1:] {
		if d == current.end {
			continue
		}
		if d == current.end.Next() {
			current.end = d
			continue
		}
		runs = append(runs, current)
		current = dateRun{start: d, end: d}
	}
	return append(runs, current)
}
