/*
summary.go - Allowance usage summary

PURPOSE:
  The read model the UI shows next to the calendar: how much of the
  allowance is spent, how much remains, and whether the session is over
  allowance (reachable by lowering the limit below current usage).

  UsedPercent is computed with decimal arithmetic so 7 of 28 days is
  exactly 25 rather than a float approximation.
*/
package leave

import "github.com/shopspring/decimal"

// Summary is a derived view of the planner's allowance state.
type Summary struct {
	Limit         int             `json:"limit"`
	Used          int             `json:"used"`
	Remaining     int             `json:"remaining"`
	OverAllowance bool            `json:"over_allowance"`
	UsedPercent   decimal.Decimal `json:"used_percent"`
}

// Summarize computes the allowance summary for a planner.
func (p *Planner) Summarize() Summary {
	s := Summary{
		Limit:         p.Limit(),
		Used:          p.Used(),
		Remaining:     p.Remaining(),
		OverAllowance: p.OverAllowance(),
		UsedPercent:   decimal.Zero,
	}
	if s.Limit > 0 {
		s.UsedPercent = decimal.NewFromInt(int64(s.Used)).
			Div(decimal.NewFromInt(int64(s.Limit))).
			Mul(decimal.NewFromInt(100)).
			Round(1)
	}
	return s
}
