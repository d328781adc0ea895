package policy

import "time"

// SalaryPolicy is the effective pay rule set for one organisational sub-unit.
type SalaryPolicy struct {
	FixedSalary        bool    `json:"fixed_salary"`
	AllowDayOT         bool    `json:"allow_day_ot"`
	AllowNightOT       bool    `json:"allow_night_ot"`
	AllowSundayOT      bool    `json:"allow_sunday_ot"`
	AllowFestivalOT    bool    `json:"allow_festival_ot"`
	ShiftHours         float64 `json:"shift_hours"`
	WorkingDaysPerWeek int     `json:"working_days_per_week"`
	// Zero means no cap on full-day Sunday OT days in a month.
	SundayAutopayWindowDays int `json:"sunday_autopay_window_days"`
	// Zero means no cap on full-day festival OT days in a month.
	FestivalAutopayWindowDays int `json:"festival_autopay_window_days"`
	PaidHolidaysPerMonth      int `json:"paid_holidays_per_month"`
	// Hour of day (0-23) after which overtime counts as night OT.
	NightStartHour int `json:"night_start_hour"`
}

const (
	DefaultShiftHours         = 8.0
	DefaultWorkingDaysPerWeek = 6
	DefaultNightStartHour     = 20
)

// DefaultPolicy is the global fallback: variable pay, every OT type allowed.
func DefaultPolicy() SalaryPolicy {
	return SalaryPolicy{
		AllowDayOT:         true,
		AllowNightOT:       true,
		AllowSundayOT:      true,
		AllowFestivalOT:    true,
		ShiftHours:         DefaultShiftHours,
		WorkingDaysPerWeek: DefaultWorkingDaysPerWeek,
		NightStartHour:     DefaultNightStartHour,
	}
}

// AllowsAnyOT reports whether at least one overtime type is payable.
func (p SalaryPolicy) AllowsAnyOT() bool {
	return p.AllowDayOT || p.AllowNightOT || p.AllowSundayOT || p.AllowFestivalOT
}

func (p SalaryPolicy) Validate() error {
	if p.ShiftHours <= 0 {
		return ErrInvalidShiftHours
	}
	if p.WorkingDaysPerWeek != 5 && p.WorkingDaysPerWeek != 6 {
		return ErrInvalidWorkingDays
	}
	if p.NightStartHour < 0 || p.NightStartHour > 23 {
		return ErrInvalidNightStartHour
	}
	if p.SundayAutopayWindowDays < 0 || p.FestivalAutopayWindowDays < 0 {
		return ErrInvalidAutopayWindow
	}
	return nil
}

// IsRestDay reports whether d is a weekly rest day under this policy.
func (p SalaryPolicy) IsRestDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Sunday:
		return true
	case time.Saturday:
		return p.WorkingDaysPerWeek == 5
	}
	return false
}

// SubUnit is an organisational sub-unit (department section, line, crew).
type SubUnit struct {
	ID   string
	Name string
}

// PolicyOverride is a DB-configured policy for a sub-unit. Nil fields keep the default.
type PolicyOverride struct {
	SubUnitID                 string
	FixedSalary               *bool
	AllowDayOT                *bool
	AllowNightOT              *bool
	AllowSundayOT             *bool
	AllowFestivalOT           *bool
	ShiftHours                *float64
	WorkingDaysPerWeek        *int
	SundayAutopayWindowDays   *int
	FestivalAutopayWindowDays *int
	PaidHolidaysPerMonth      *int
	NightStartHour            *int
	UpdatedAt                 time.Time
}

// MergeOver applies the override's set fields on top of base.
func (o PolicyOverride) MergeOver(base SalaryPolicy) SalaryPolicy {
	p := base
	if o.FixedSalary != nil {
		p.FixedSalary = *o.FixedSalary
	}
	if o.AllowDayOT != nil {
		p.AllowDayOT = *o.AllowDayOT
	}
	if o.AllowNightOT != nil {
		p.AllowNightOT = *o.AllowNightOT
	}
	if o.AllowSundayOT != nil {
		p.AllowSundayOT = *o.AllowSundayOT
	}
	if o.AllowFestivalOT != nil {
		p.AllowFestivalOT = *o.AllowFestivalOT
	}
	if o.ShiftHours != nil {
		p.ShiftHours = *o.ShiftHours
	}
	if o.WorkingDaysPerWeek != nil {
		p.WorkingDaysPerWeek = *o.WorkingDaysPerWeek
	}
	if o.SundayAutopayWindowDays != nil {
		p.SundayAutopayWindowDays = *o.SundayAutopayWindowDays
	}
	if o.FestivalAutopayWindowDays != nil {
		p.FestivalAutopayWindowDays = *o.FestivalAutopayWindowDays
	}
	if o.PaidHolidaysPerMonth != nil {
		p.PaidHolidaysPerMonth = *o.PaidHolidaysPerMonth
	}
	if o.NightStartHour != nil {
		p.NightStartHour = *o.NightStartHour
	}
	return p
}

// Source says which resolution branch produced a policy.
type Source string

const (
	SourceOverride  Source = "override"
	SourceHeuristic Source = "heuristic"
	SourceDefault   Source = "default"
)

// Resolved is a policy together with how it was resolved.
type Resolved struct {
	SubUnitID string       `json:"sub_unit_id"`
	Policy    SalaryPolicy `json:"policy"`
	Source    Source       `json:"source"`
	RuleName  string       `json:"rule_name,omitempty"`
}
