package report

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
)

// DayStatus is the calendar cell state. Blank means future or rest day.
type DayStatus string

const (
	DayPresent  DayStatus = "present"
	DayAbsent   DayStatus = "absent"
	DayHalfDay  DayStatus = "halfday"
	DayLeave    DayStatus = "leave"
	DayFestival DayStatus = "festival"
	DayBlank    DayStatus = ""
)

// Override records which full-day OT rule fired on a day.
type Override string

const (
	OverrideNone     Override = ""
	OverrideSunday   Override = "sunday_full_day"
	OverrideFestival Override = "festival_full_day"
)

type DayCell struct {
	Date        string           `json:"date"`
	Weekday     string           `json:"weekday"`
	Status      DayStatus        `json:"status"`
	IsWeekend   bool             `json:"is_weekend"`
	IsHoliday   bool             `json:"is_holiday"`
	HolidayName string           `json:"holiday_name,omitempty"`
	Hours       attendance.Hours `json:"hours"`
	Override    Override         `json:"override,omitempty"`
	FirstIn     *time.Time       `json:"first_in,omitempty"`
	LastOut     *time.Time       `json:"last_out,omitempty"`
	Open        bool             `json:"open,omitempty"`
}

// MonthlySummary holds per employee per month counters, unique by (employee, year, month).
type MonthlySummary struct {
	EmployeeID    string    `json:"employee_id"`
	Year          int       `json:"year"`
	Month         int       `json:"month"`
	TotalPresent  int       `json:"total_present"`
	TotalAbsent   int       `json:"total_absent"`
	TotalHalfDay  int       `json:"total_halfday"`
	TotalLeave    int       `json:"total_leave"`
	TotalFestival int       `json:"total_festival"`
	WorkingDays   int       `json:"working_days"`
	HoursWorked   float64   `json:"hours_worked"`
	OvertimeHours float64   `json:"overtime_hours"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type AttendanceReport struct {
	EmployeeID   string           `json:"employee_id"`
	EmployeeName string           `json:"employee_name"`
	Year         int              `json:"year"`
	Month        int              `json:"month"`
	Days         []DayCell        `json:"days"`
	OTTotals     attendance.Hours `json:"ot_totals"`
	Summary      MonthlySummary   `json:"summary"`
}
