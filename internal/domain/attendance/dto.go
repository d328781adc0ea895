package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

type PunchRequest struct {
	EmployeeID string    `json:"employee_id"`
	Type       PunchType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	// Client UTC offset in minutes, e.g. 330 for +05:30.
	TZOffsetMinutes *int `json:"tz_offset_minutes,omitempty"`
}

func (r *PunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if !r.Type.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be IN or OUT"})
	}
	if r.Timestamp.IsZero() {
		errs = append(errs, validator.ValidationError{Field: "timestamp", Message: "is required"})
	}
	if r.TZOffsetMinutes != nil && (*r.TZOffsetMinutes < -14*60 || *r.TZOffsetMinutes > 14*60) {
		errs = append(errs, validator.ValidationError{Field: "tz_offset_minutes", Message: "must be between -840 and 840"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// LocalTimestamp returns the punch time in the client's zone when an offset was sent,
// else in loc.
func (r PunchRequest) LocalTimestamp(loc *time.Location) time.Time {
	if r.TZOffsetMinutes != nil {
		return r.Timestamp.In(time.FixedZone("client", *r.TZOffsetMinutes*60))
	}
	return r.Timestamp.In(loc)
}

type ManualEntryRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`
	Status     Status  `json:"status"`
	TotalHours float64 `json:"total_hours"`
}

func (r *ManualEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "must be in YYYY-MM-DD format"})
	}
	if !r.Status.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "must be one of present, absent, halfday, leave"})
	}
	if r.TotalHours < 0 || r.TotalHours > 24 {
		errs = append(errs, validator.ValidationError{Field: "total_hours", Message: "must be between 0 and 24"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AttendanceDayResponse struct {
	EmployeeID string       `json:"employee_id"`
	Date       string       `json:"date"`
	Status     Status       `json:"status"`
	IsWeekend  bool         `json:"is_weekend"`
	IsHoliday  bool         `json:"is_holiday"`
	Hours      Hours        `json:"hours"`
	Punches    []PunchEvent `json:"punches"`
	LastInAt   *time.Time   `json:"last_in_at,omitempty"`
	LastOutAt  *time.Time   `json:"last_out_at,omitempty"`
	Open       bool         `json:"open"`
}

func NewAttendanceDayResponse(d AttendanceDay) AttendanceDayResponse {
	punches := d.Punches
	if punches == nil {
		punches = []PunchEvent{}
	}
	return AttendanceDayResponse{
		EmployeeID: d.EmployeeID,
		Date:       d.Date.Format(time.DateOnly),
		Status:     d.Status,
		IsWeekend:  d.IsWeekend,
		IsHoliday:  d.IsHoliday,
		Hours:      d.Hours,
		Punches:    punches,
		LastInAt:   d.LastInAt,
		LastOutAt:  d.LastOutAt,
		Open:       d.HasOpenPunch(),
	}
}

type CreateHolidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func (r *CreateHolidayRequest) Validate() error {
	var errs validator.ValidationErrors

	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "must be in YYYY-MM-DD format"})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type HolidayResponse struct {
	ID   string `json:"id"`
	Date string `json:"date"`
	Name string `json:"name"`
}
