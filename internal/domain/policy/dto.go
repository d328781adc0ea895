package policy

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

type UpsertPolicyRequest struct {
	SubUnitID                 string   `json:"-"`
	FixedSalary               *bool    `json:"fixed_salary,omitempty"`
	AllowDayOT                *bool    `json:"allow_day_ot,omitempty"`
	AllowNightOT              *bool    `json:"allow_night_ot,omitempty"`
	AllowSundayOT             *bool    `json:"allow_sunday_ot,omitempty"`
	AllowFestivalOT           *bool    `json:"allow_festival_ot,omitempty"`
	ShiftHours                *float64 `json:"shift_hours,omitempty"`
	WorkingDaysPerWeek        *int     `json:"working_days_per_week,omitempty"`
	SundayAutopayWindowDays   *int     `json:"sunday_autopay_window_days,omitempty"`
	FestivalAutopayWindowDays *int     `json:"festival_autopay_window_days,omitempty"`
	PaidHolidaysPerMonth      *int     `json:"paid_holidays_per_month,omitempty"`
	NightStartHour            *int     `json:"night_start_hour,omitempty"`
}

func (r *UpsertPolicyRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.SubUnitID) {
		errs = append(errs, validator.ValidationError{Field: "sub_unit_id", Message: "is required"})
	}
	if r.ShiftHours != nil && (*r.ShiftHours <= 0 || *r.ShiftHours > 24) {
		errs = append(errs, validator.ValidationError{Field: "shift_hours", Message: "must be greater than 0 and at most 24"})
	}
	if r.WorkingDaysPerWeek != nil && *r.WorkingDaysPerWeek != 5 && *r.WorkingDaysPerWeek != 6 {
		errs = append(errs, validator.ValidationError{Field: "working_days_per_week", Message: "must be 5 or 6"})
	}
	if r.SundayAutopayWindowDays != nil && *r.SundayAutopayWindowDays < 0 {
		errs = append(errs, validator.ValidationError{Field: "sunday_autopay_window_days", Message: "must be non-negative"})
	}
	if r.FestivalAutopayWindowDays != nil && *r.FestivalAutopayWindowDays < 0 {
		errs = append(errs, validator.ValidationError{Field: "festival_autopay_window_days", Message: "must be non-negative"})
	}
	if r.PaidHolidaysPerMonth != nil && *r.PaidHolidaysPerMonth < 0 {
		errs = append(errs, validator.ValidationError{Field: "paid_holidays_per_month", Message: "must be non-negative"})
	}
	if r.NightStartHour != nil && (*r.NightStartHour < 0 || *r.NightStartHour > 23) {
		errs = append(errs, validator.ValidationError{Field: "night_start_hour", Message: "must be between 0 and 23"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r UpsertPolicyRequest) ToOverride() PolicyOverride {
	return PolicyOverride{
		SubUnitID:                 r.SubUnitID,
		FixedSalary:               r.FixedSalary,
		AllowDayOT:                r.AllowDayOT,
		AllowNightOT:              r.AllowNightOT,
		AllowSundayOT:             r.AllowSundayOT,
		AllowFestivalOT:           r.AllowFestivalOT,
		ShiftHours:                r.ShiftHours,
		WorkingDaysPerWeek:        r.WorkingDaysPerWeek,
		SundayAutopayWindowDays:   r.SundayAutopayWindowDays,
		FestivalAutopayWindowDays: r.FestivalAutopayWindowDays,
		PaidHolidaysPerMonth:      r.PaidHolidaysPerMonth,
		NightStartHour:            r.NightStartHour,
	}
}

type PolicyOverrideResponse struct {
	SubUnitID string       `json:"sub_unit_id"`
	Effective SalaryPolicy `json:"effective"`
	UpdatedAt time.Time    `json:"updated_at"`
}
