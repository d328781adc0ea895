package attendance

import (
	"math"
	"time"
)

type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

func (t PunchType) IsValid() bool {
	return t == PunchIn || t == PunchOut
}

type PunchEvent struct {
	Type      PunchType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusHalfDay Status = "halfday"
	StatusLeave   Status = "leave"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHalfDay, StatusLeave:
		return true
	}
	return false
}

// Hours holds the classified work-time buckets of one attendance-day.
// Regular + Overtime equals Total and the four OT buckets sum to Overtime.
type Hours struct {
	Total      float64 `json:"total_hours"`
	Regular    float64 `json:"regular_hours"`
	Overtime   float64 `json:"overtime_hours"`
	DayOT      float64 `json:"day_ot_hours"`
	NightOT    float64 `json:"night_ot_hours"`
	SundayOT   float64 `json:"sunday_ot_hours"`
	FestivalOT float64 `json:"festival_ot_hours"`
}

const hoursTolerance = 0.01

// Check verifies that the buckets add up, within rounding tolerance.
func (h Hours) Check() error {
	if math.Abs(h.Regular+h.Overtime-h.Total) > hoursTolerance {
		return ErrBucketMismatch
	}
	if math.Abs(h.DayOT+h.NightOT+h.SundayOT+h.FestivalOT-h.Overtime) > hoursTolerance {
		return ErrBucketMismatch
	}
	return nil
}

// AssignAll moves every overtime hour into one bucket and zeroes the others.
func (h *Hours) AssignAll(bucket OTBucket) {
	h.DayOT, h.NightOT, h.SundayOT, h.FestivalOT = 0, 0, 0, 0
	switch bucket {
	case BucketDay:
		h.DayOT = h.Overtime
	case BucketNight:
		h.NightOT = h.Overtime
	case BucketSunday:
		h.SundayOT = h.Overtime
	case BucketFestival:
		h.FestivalOT = h.Overtime
	}
}

func (h *Hours) Add(o Hours) {
	h.Total += o.Total
	h.Regular += o.Regular
	h.Overtime += o.Overtime
	h.DayOT += o.DayOT
	h.NightOT += o.NightOT
	h.SundayOT += o.SundayOT
	h.FestivalOT += o.FestivalOT
}

// Rounded returns h with every field rounded to 2 decimal places.
func (h Hours) Rounded() Hours {
	return Hours{
		Total:      Round2(h.Total),
		Regular:    Round2(h.Regular),
		Overtime:   Round2(h.Overtime),
		DayOT:      Round2(h.DayOT),
		NightOT:    Round2(h.NightOT),
		SundayOT:   Round2(h.SundayOT),
		FestivalOT: Round2(h.FestivalOT),
	}
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type OTBucket string

const (
	BucketDay      OTBucket = "day"
	BucketNight    OTBucket = "night"
	BucketSunday   OTBucket = "sunday"
	BucketFestival OTBucket = "festival"
)

// PunchPair is one closed IN/OUT interval.
type PunchPair struct {
	In      time.Time `json:"in"`
	Out     time.Time `json:"out"`
	Minutes int       `json:"minutes"`
	Open    bool      `json:"open,omitempty"`
}

// HoursOptions carries the day-type flags and policy switches for one calculation.
type HoursOptions struct {
	ShiftHours      float64
	Now             time.Time
	CountOpenAsNow  bool
	IsWeekend       bool
	IsHoliday       bool
	AllowSundayOT   bool
	AllowFestivalOT bool
	ForceSunday     bool
	ForceFestival   bool
	NightStartHour  int
}

type HoursResult struct {
	Hours
	LastInTime  *time.Time  `json:"last_in_time,omitempty"`
	LastOutTime *time.Time  `json:"last_out_time,omitempty"`
	Pairs       []PunchPair `json:"pairs"`
	Bucket      OTBucket    `json:"dominant_bucket,omitempty"`
}

// AttendanceDay is one employee's record for one calendar date.
type AttendanceDay struct {
	ID         string
	EmployeeID string
	Date       time.Time
	Status     Status
	Punches    []PunchEvent
	IsWeekend  bool
	IsHoliday  bool
	Hours      Hours
	LastInAt   *time.Time
	LastOutAt  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// HasOpenPunch reports whether the latest punch is an IN with no OUT after it.
func (d AttendanceDay) HasOpenPunch() bool {
	if len(d.Punches) == 0 {
		return false
	}
	return d.Punches[len(d.Punches)-1].Type == PunchIn
}

type Holiday struct {
	ID        string
	Date      time.Time
	Name      string
	CreatedAt time.Time
}
