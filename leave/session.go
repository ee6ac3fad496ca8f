/*
session.go - Persisted session shape

PURPOSE:
  The serializable view of one user's planning session: jurisdiction
  choice, the year being viewed, the allowance, and the full selection
  set. Dates serialize as ISO calendar strings, so a round trip through
  storage never shifts a day by a timezone offset.

  Storage mechanics live in store/sqlite and store/memory; this file
  only defines the shape and its defaults.
*/
package leave

import (
	"github.com/AntObr/holiday-planner/calendar"
	"github.com/AntObr/holiday-planner/holidays"
)

// DefaultAllowance matches the planner's out-of-the-box limit.
const DefaultAllowance = 20

// Session is the persisted planning state for one user.
type Session struct {
	Division  holidays.Division `json:"division"`
	Year      int               `json:"year"`
	Allowance int               `json:"allowance"`
	Selected  []calendar.Date   `json:"selected"`
}

// DefaultSession is the state for a first visit: England & Wales, the
// current year, the default allowance, nothing selected.
func DefaultSession() Session {
	return Session{
		Division:  holidays.EnglandAndWales,
		Year:      calendar.Today().Year,
		Allowance: DefaultAllowance,
	}
}

// Snapshot captures the planner (plus division and year context) as a
// Session ready to persist.
func Snapshot(p *Planner, division holidays.Division, year int) Session {
	return Session{
		Division:  division,
		Year:      year,
		Allowance: p.Limit(),
		Selected:  p.Selected(),
	}
}
