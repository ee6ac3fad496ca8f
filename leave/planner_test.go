package leave_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/AntObr/holiday-planner/calendar"
	"github.com/AntObr/holiday-planner/leave"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) calendar.Date {
	return calendar.NewDate(year, month, day)
}

// =============================================================================
// TOGGLE
// =============================================================================

func TestToggle_SelectAndDeselect(t *testing.T) {
	// GIVEN: an empty planner with allowance 5
	// WHEN: a day is toggled twice
	// THEN: the selection returns to its prior state

	p := leave.NewPlanner(5)
	d := date(2024, time.June, 10)

	selected, err := p.Toggle(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !selected || !p.Contains(d) || p.Used() != 1 {
		t.Fatalf("expected day selected, used=1; got selected=%v used=%d", selected, p.Used())
	}

	selected, err = p.Toggle(d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if selected || p.Contains(d) || p.Used() != 0 {
		t.Fatalf("expected day deselected, used=0; got selected=%v used=%d", selected, p.Used())
	}
}

func TestToggle_AllowanceExceeded_NoStateChange(t *testing.T) {
	// GIVEN: a planner at its limit
	// WHEN: another day is toggled on
	// THEN: the operation reports AllowanceExceeded and changes nothing

	p := leave.NewPlanner(2)
	p.Toggle(date(2024, time.June, 10))
	p.Toggle(date(2024, time.June, 11))

	before := p.Selected()
	_, err := p.Toggle(date(2024, time.June, 12))

	if !errors.Is(err, leave.ErrAllowanceExceeded) {
		t.Fatalf("expected ErrAllowanceExceeded, got %v", err)
	}
	var allowanceErr *leave.AllowanceError
	if !errors.As(err, &allowanceErr) {
		t.Fatal("expected *AllowanceError detail")
	}
	if allowanceErr.Limit != 2 || allowanceErr.Used != 2 {
		t.Errorf("detail = %+v, want limit=2 used=2", allowanceErr)
	}

	after := p.Selected()
	if len(after) != len(before) {
		t.Fatalf("rejected toggle mutated the selection: %v -> %v", before, after)
	}
}

func TestToggle_RemovalAlwaysPermitted(t *testing.T) {
	// Even over allowance (after lowering the limit), removal works.
	p := leave.NewPlanner(3)
	p.Toggle(date(2024, time.June, 10))
	p.Toggle(date(2024, time.June, 11))
	p.Toggle(date(2024, time.June, 12))
	p.SetLimit(1)

	if !p.OverAllowance() {
		t.Fatal("expected over-allowance state")
	}

	if _, err := p.Toggle(date(2024, time.June, 10)); err != nil {
		t.Fatalf("removal should always succeed, got %v", err)
	}
	if p.Used() != 2 {
		t.Errorf("used = %d, want 2", p.Used())
	}
}

func TestToggle_ZeroLimit_RejectsEverything(t *testing.T) {
	p := leave.NewPlanner(0)
	if _, err := p.Toggle(date(2024, time.June, 10)); !errors.Is(err, leave.ErrAllowanceExceeded) {
		t.Fatalf("expected ErrAllowanceExceeded with zero limit, got %v", err)
	}
}

// =============================================================================
// INVARIANT PROPERTY - random toggle sequences never breach the limit
// =============================================================================

func TestToggle_InvariantUnderRandomSequences(t *testing.T) {
	// GIVEN: random limits and random toggle sequences
	// WHEN: any number of toggles are applied
	// THEN: |selected| <= limit holds after every successful call

	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 50; trial++ {
		limit := rng.Intn(15)
		p := leave.NewPlanner(limit)

		for op := 0; op < 200; op++ {
			d := date(2024, time.Month(1+rng.Intn(12)), 1+rng.Intn(28))
			_, err := p.Toggle(d)
			if err != nil && !errors.Is(err, leave.ErrAllowanceExceeded) {
				t.Fatalf("trial %d: unexpected error: %v", trial, err)
			}
			if p.Used() > limit {
				t.Fatalf("trial %d: invariant broken: used %d > limit %d", trial, p.Used(), limit)
			}
		}
	}
}

// =============================================================================
// RESET
// =============================================================================

func TestReset_RemovesOnlyGivenYear(t *testing.T) {
	// GIVEN: a selection spanning 2024 and 2025
	// WHEN: 2024 is reset
	// THEN: exactly the 2024 days disappear and usage follows the set

	p := leave.NewPlanner(10)
	p.Toggle(date(2024, time.March, 1))
	p.Toggle(date(2024, time.March, 2))
	p.Toggle(date(2025, time.January, 5))

	removed := p.Reset(2024)

	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if p.Used() != 1 {
		t.Errorf("used = %d, want 1", p.Used())
	}
	if !p.Contains(date(2025, time.January, 5)) {
		t.Error("2025 selection should survive a 2024 reset")
	}
}

func TestReset_EmptyYearIsNoop(t *testing.T) {
	p := leave.NewPlanner(5)
	p.Toggle(date(2025, time.July, 1))
	if removed := p.Reset(2024); removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if p.Used() != 1 {
		t.Errorf("used = %d, want 1", p.Used())
	}
}

// =============================================================================
// LIMIT CHANGES
// =============================================================================

func TestSetLimit_NeverDeselects(t *testing.T) {
	// Lowering the limit below usage leaves an over-allowance state;
	// the planner must tolerate it, not silently trim.

	p := leave.NewPlanner(5)
	for d := 1; d <= 4; d++ {
		p.Toggle(date(2024, time.August, d))
	}

	p.SetLimit(2)

	if p.Used() != 4 {
		t.Errorf("used = %d, selection must survive the limit change", p.Used())
	}
	if !p.OverAllowance() {
		t.Error("expected OverAllowance to report the breach")
	}
	if p.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0 (never negative)", p.Remaining())
	}

	// The invariant applies to future toggles.
	if _, err := p.Toggle(date(2024, time.August, 5)); !errors.Is(err, leave.ErrAllowanceExceeded) {
		t.Fatalf("expected ErrAllowanceExceeded, got %v", err)
	}

	// Raising the limit again restores headroom.
	p.SetLimit(6)
	if _, err := p.Toggle(date(2024, time.August, 5)); err != nil {
		t.Fatalf("expected toggle to succeed after raise, got %v", err)
	}
}

// =============================================================================
// RESTORE AND READS
// =============================================================================

func TestRestore_PreservesSelectionVerbatim(t *testing.T) {
	days := []calendar.Date{
		date(2024, time.May, 6),
		date(2024, time.May, 7),
		date(2024, time.May, 8),
	}

	// Persisted over-allowance state comes back over-allowance.
	p := leave.Restore(2, days)
	if p.Used() != 3 || !p.OverAllowance() {
		t.Fatalf("restore changed the selection: used=%d over=%v", p.Used(), p.OverAllowance())
	}
}

func TestSelected_SortedAscending(t *testing.T) {
	p := leave.NewPlanner(10)
	p.Toggle(date(2024, time.December, 25))
	p.Toggle(date(2024, time.January, 1))
	p.Toggle(date(2024, time.June, 15))

	selected := p.Selected()
	for i := 1; i < len(selected); i++ {
		if !selected[i-1].Before(selected[i]) {
			t.Fatalf("selection not sorted: %v", selected)
		}
	}
}

func TestSummarize(t *testing.T) {
	p := leave.NewPlanner(28)
	for d := 1; d <= 7; d++ {
		p.Toggle(date(2024, time.July, d))
	}

	s := p.Summarize()
	if s.Limit != 28 || s.Used != 7 || s.Remaining != 21 || s.OverAllowance {
		t.Errorf("summary = %+v", s)
	}
	if s.UsedPercent.String() != "25" {
		t.Errorf("used percent = %s, want exactly 25", s.UsedPercent)
	}
}

func TestSummarize_ZeroLimit(t *testing.T) {
	s := leave.NewPlanner(0).Summarize()
	if !s.UsedPercent.IsZero() {
		t.Errorf("zero limit should report 0%%, got %s", s.UsedPercent)
	}
}
