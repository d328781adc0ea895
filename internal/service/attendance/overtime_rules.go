package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
)

// OvertimeRules builds HoursOptions for consecutive days of one employee and
// applies the policy's full-day Sunday and festival OT caps. Days must be fed in
// ascending date order.
type OvertimeRules struct {
	policy        policy.SalaryPolicy
	shiftHours    float64
	now           time.Time
	sundaysUsed   int
	festivalsUsed int
}

func NewOvertimeRules(pol policy.SalaryPolicy, shiftHours float64, now time.Time) *OvertimeRules {
	return &OvertimeRules{policy: pol, shiftHours: shiftHours, now: now}
}

// OptionsFor returns the options for day. Only present days consume a cap slot.
func (r *OvertimeRules) OptionsFor(day attendance.AttendanceDay) attendance.HoursOptions {
	opts := attendance.HoursOptions{
		ShiftHours:     r.shiftHours,
		Now:            r.now,
		CountOpenAsNow: true,
		IsWeekend:      day.IsWeekend,
		IsHoliday:      day.IsHoliday,
		NightStartHour: r.policy.NightStartHour,
	}
	if !isPresent(day) {
		return opts
	}

	switch {
	case day.IsHoliday && r.policy.AllowFestivalOT:
		if withinCap(r.festivalsUsed, r.policy.FestivalAutopayWindowDays) {
			opts.ForceFestival = true
		}
		r.festivalsUsed++
	case day.IsWeekend && r.policy.AllowSundayOT:
		if withinCap(r.sundaysUsed, r.policy.SundayAutopayWindowDays) {
			opts.ForceSunday = true
		}
		r.sundaysUsed++
	}
	return opts
}

func withinCap(used, limit int) bool {
	return limit <= 0 || used < limit
}

func isPresent(day attendance.AttendanceDay) bool {
	if len(day.Punches) > 0 {
		return true
	}
	return day.Status == attendance.StatusPresent || day.Status == attendance.StatusHalfDay
}

// Recompute refreshes a day's hours from its punches. Days without punches keep
// their stored totals, re-bucketed when a full-day override applies.
func Recompute(calc attendance.HoursCalculator, day attendance.AttendanceDay, opts attendance.HoursOptions) (attendance.AttendanceDay, attendance.OTBucket, error) {
	if len(day.Punches) == 0 {
		switch {
		case opts.ForceFestival && day.Hours.Overtime > 0:
			day.Hours.AssignAll(attendance.BucketFestival)
			return day, attendance.BucketFestival, nil
		case opts.ForceSunday && day.Hours.Overtime > 0:
			day.Hours.AssignAll(attendance.BucketSunday)
			return day, attendance.BucketSunday, nil
		}
		return day, "", nil
	}

	res, err := calc.Calculate(day.Punches, opts)
	if err != nil {
		return day, "", err
	}
	day.Hours = res.Hours
	day.LastInAt = res.LastInTime
	day.LastOutAt = res.LastOutTime
	return day, res.Bucket, nil
}
