/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the
  internal domain model from the external API contract. Dates always
  travel as ISO calendar strings (calendar.Date marshals itself), so
  the wire format cannot shift a day by timezone.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/AntObr/holiday-planner/calendar"
	"github.com/AntObr/holiday-planner/holidays"
	"github.com/AntObr/holiday-planner/leave"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ToggleRequest toggles one day's leave selection.
type ToggleRequest struct {
	Date calendar.Date `json:"date"`
}

// ResetRequest clears one year's selection.
type ResetRequest struct {
	Year int `json:"year"`
}

// AllowanceRequest replaces the allowance limit.
type AllowanceRequest struct {
	Limit int `json:"limit"`
}

// SessionRequest updates the division and/or viewed year.
type SessionRequest struct {
	Division holidays.Division `json:"division"`
	Year     int               `json:"year"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

// DayDTO is one annotated day of a month grid.
type DayDTO struct {
	Date         calendar.Date `json:"date"`
	IsHoliday    bool          `json:"is_holiday"`
	IsSelected   bool          `json:"is_selected"`
	HolidayTitle string        `json:"holiday_title,omitempty"`
}

// MonthDTO is a fully annotated month.
type MonthDTO struct {
	Year         int      `json:"year"`
	Month        int      `json:"month"`
	MonthName    string   `json:"month_name"`
	FirstWeekday int      `json:"first_weekday"`
	Days         []DayDTO `json:"days"`
}

// HolidayDTO is one bank holiday.
type HolidayDTO struct {
	Title   string        `json:"title"`
	Date    calendar.Date `json:"date"`
	Notes   string        `json:"notes,omitempty"`
	Bunting bool          `json:"bunting"`
}

// MonthSummaryDTO is one month's runs rendered for humans.
type MonthSummaryDTO struct {
	Month     int         `json:"month"`
	MonthName string      `json:"month_name"`
	Runs      []leave.Run `json:"runs"`
	Formatted string      `json:"formatted"`
}

// LeaveDTO is the full leave read model: allowance summary, the raw
// selection, and the per-month run summary for the viewed year.
type LeaveDTO struct {
	Division holidays.Division `json:"division"`
	Year     int               `json:"year"`
	Summary  leave.Summary     `json:"summary"`
	Selected []calendar.Date   `json:"selected"`
	Months   []MonthSummaryDTO `json:"months"`
}

// ToggleResponse reports the post-toggle state of the day and summary.
type ToggleResponse struct {
	Date     calendar.Date `json:"date"`
	Selected bool          `json:"selected"`
	Summary  leave.Summary `json:"summary"`
}

// ResetResponse reports how many days a reset removed.
type ResetResponse struct {
	Year    int           `json:"year"`
	Removed int           `json:"removed"`
	Summary leave.Summary `json:"summary"`
}

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toMonthDTO(m calendar.Month) MonthDTO {
	days := make([]DayDTO, len(m.Days))
	for i, d := range m.Days {
		days[i] = DayDTO{
			Date:         d.Date,
			IsHoliday:    d.IsHoliday,
			IsSelected:   d.IsSelected,
			HolidayTitle: d.HolidayTitle,
		}
	}
	return MonthDTO{
		Year:         m.Year,
		Month:        int(m.Month),
		MonthName:    m.Month.String(),
		FirstWeekday: int(calendar.FirstWeekday(m.Year, m.Month)),
		Days:         days,
	}
}

func toHolidayDTOs(events []holidays.Event) []HolidayDTO {
	dtos := make([]HolidayDTO, len(events))
	for i, ev := range events {
		dtos[i] = HolidayDTO{Title: ev.Title, Date: ev.Date, Notes: ev.Notes, Bunting: ev.Bunting}
	}
	return dtos
}

func toMonthSummaryDTOs(grouped []leave.MonthRuns) []MonthSummaryDTO {
	dtos := make([]MonthSummaryDTO, len(grouped))
	for i, mr := range grouped {
		dtos[i] = MonthSummaryDTO{
			Month:     int(mr.Month),
			MonthName: mr.Month.String(),
			Runs:      mr.Runs,
			Formatted: leave.FormatMonth(mr),
		}
	}
	return dtos
}
