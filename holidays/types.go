/*
Package holidays fetches and caches the UK bank-holiday dataset.

PURPOSE:
  Wraps the gov.uk bank-holidays endpoint behind a Source that callers
  inject explicitly (no package-level singleton). The upstream returns
  all three divisions in one response, so the Source always fetches the
  full dataset atomically and slices per-division lookups out of its
  cached snapshot.

KEY CONCEPTS IN THIS FILE (types.go):
  - Division: one of the three UK public-holiday calendars
  - Event: a single bank holiday as published upstream
  - Snapshot: the full cached dataset plus its fetch timestamp

SEE ALSO:
  - source.go: fetching, TTL cache, in-flight request collapsing
*/
package holidays

import (
	"strings"
	"time"

	"github.com/AntObr/holiday-planner/calendar"
)

// =============================================================================
// DIVISIONS
// =============================================================================

// Division identifies one of the three UK public-holiday calendars.
type Division string

const (
	EnglandAndWales Division = "england-and-wales"
	Scotland        Division = "scotland"
	NorthernIreland Division = "northern-ireland"
)

// Divisions lists all known divisions in upstream order.
func Divisions() []Division {
	return []Division{EnglandAndWales, Scotland, NorthernIreland}
}

// Valid reports whether d is one of the three known divisions.
func (d Division) Valid() bool {
	switch d {
	case EnglandAndWales, Scotland, NorthernIreland:
		return true
	}
	return false
}

// DisplayName renders the division key for humans:
// "england-and-wales" -> "England And Wales".
func (d Division) DisplayName() string {
	words := strings.Split(string(d), "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// =============================================================================
// EVENTS AND SNAPSHOTS
// =============================================================================

// Event is a single bank holiday. Immutable once fetched.
type Event struct {
	Title   string        `json:"title"`
	Date    calendar.Date `json:"date"`
	Notes   string        `json:"notes"`
	Bunting bool          `json:"bunting"`
}

// Snapshot is the full upstream dataset at a point in time. A Snapshot
// is replaced wholesale on refresh and never mutated in place, so
// callers may hold one across requests safely.
type Snapshot struct {
	FetchedAt time.Time

	events map[Division][]Event
	byDate map[Division]map[calendar.Date]string
}

// Events returns one division's bank holidays in upstream order. The
// returned slice must not be modified.
func (s *Snapshot) Events(division Division) []Event {
	return s.events[division]
}

// Lookup returns one division's date -> title mapping, the shape the
// grid builder consumes. The returned map must not be modified.
func (s *Snapshot) Lookup(division Division) map[calendar.Date]string {
	return s.byDate[division]
}

// newSnapshot indexes raw per-division events into a Snapshot.
func newSnapshot(events map[Division][]Event, fetchedAt time.Time) *Snapshot {
	byDate := make(map[Division]map[calendar.Date]string, len(events))
	for division, evs := range events {
		index := make(map[calendar.Date]string, len(evs))
		for _, ev := range evs {
			index[ev.Date] = ev.Title
		}
		byDate[division] = index
	}
	return &Snapshot{FetchedAt: fetchedAt, events: events, byDate: byDate}
}
