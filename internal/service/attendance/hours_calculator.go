package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
)

// Night OT runs from the policy's night start hour until this hour next morning.
const nightEndHour = 6

type HoursCalculatorImpl struct{}

func NewHoursCalculator() attendance.HoursCalculator {
	return &HoursCalculatorImpl{}
}

// Calculate pairs IN/OUT punches and classifies the worked time into regular and
// overtime buckets. All hour figures are rounded to 2 decimals.
func (c *HoursCalculatorImpl) Calculate(events []attendance.PunchEvent, opts attendance.HoursOptions) (attendance.HoursResult, error) {
	if opts.ShiftHours <= 0 {
		return attendance.HoursResult{}, attendance.ErrInvalidShiftHours
	}

	result := attendance.HoursResult{Pairs: []attendance.PunchPair{}}
	if len(events) == 0 {
		return result, nil
	}

	sorted := make([]attendance.PunchEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var currentIn *time.Time
	totalMinutes := 0
	for _, ev := range sorted {
		ts := ev.Timestamp
		switch ev.Type {
		case attendance.PunchIn:
			// a second IN replaces the open one
			currentIn = &ts
			result.LastInTime = &ts
		case attendance.PunchOut:
			result.LastOutTime = &ts
			if currentIn == nil {
				continue
			}
			pair := closePair(*currentIn, ts)
			result.Pairs = append(result.Pairs, pair)
			totalMinutes += pair.Minutes
			currentIn = nil
		}
	}

	if currentIn != nil && opts.CountOpenAsNow && !opts.Now.IsZero() {
		pair := closePair(*currentIn, opts.Now)
		pair.Open = true
		result.Pairs = append(result.Pairs, pair)
		totalMinutes += pair.Minutes
	}

	total := attendance.Round2(float64(totalMinutes) / 60)
	regular := attendance.Round2(min(total, opts.ShiftHours))
	result.Hours = attendance.Hours{
		Total:    total,
		Regular:  regular,
		Overtime: attendance.Round2(total - regular),
	}
	if result.Overtime <= 0 {
		result.Overtime = 0
		return result, nil
	}

	switch {
	case opts.IsHoliday && (opts.AllowFestivalOT || opts.ForceFestival):
		result.Bucket = attendance.BucketFestival
		result.AssignAll(attendance.BucketFestival)
	case opts.IsWeekend && (opts.AllowSundayOT || opts.ForceSunday):
		result.Bucket = attendance.BucketSunday
		result.AssignAll(attendance.BucketSunday)
	default:
		otMinutes := totalMinutes - int(opts.ShiftHours*60+0.5)
		night := attendance.Round2(float64(tailNightMinutes(result.Pairs, otMinutes, opts.NightStartHour)) / 60)
		if night > result.Overtime {
			night = result.Overtime
		}
		result.NightOT = night
		result.DayOT = attendance.Round2(result.Overtime - night)
		if night > result.DayOT {
			result.Bucket = attendance.BucketNight
		} else {
			result.Bucket = attendance.BucketDay
		}
	}

	return result, nil
}

func closePair(in, out time.Time) attendance.PunchPair {
	minutes := int(out.Sub(in) / time.Minute)
	if minutes < 0 {
		minutes += 24 * 60
	}
	return attendance.PunchPair{In: in, Out: out, Minutes: minutes}
}

// tailNightMinutes walks the worked intervals backwards from the last OUT,
// takes otMinutes of them, and returns how many of those fall in a night window.
func tailNightMinutes(pairs []attendance.PunchPair, otMinutes, nightStartHour int) int {
	if otMinutes <= 0 {
		return 0
	}
	remaining := otMinutes
	night := 0
	for i := len(pairs) - 1; i >= 0 && remaining > 0; i-- {
		p := pairs[i]
		take := min(p.Minutes, remaining)
		segEnd := p.In.Add(time.Duration(p.Minutes) * time.Minute)
		segStart := segEnd.Add(-time.Duration(take) * time.Minute)
		night += nightOverlapMinutes(segStart, segEnd, nightStartHour)
		remaining -= take
	}
	return night
}

// nightOverlapMinutes counts the minutes of [start, end) that fall between
// nightStartHour and the next nightEndHour.
func nightOverlapMinutes(start, end time.Time, nightStartHour int) int {
	if !end.After(start) {
		return 0
	}
	loc := start.Location()
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	total := time.Duration(0)
	for !day.After(end) {
		winStart := day.Add(time.Duration(nightStartHour) * time.Hour)
		winEnd := day.Add(nightEndHour * time.Hour)
		if nightStartHour >= nightEndHour {
			winEnd = winEnd.AddDate(0, 0, 1)
		}
		lo := start
		if winStart.After(lo) {
			lo = winStart
		}
		hi := end
		if winEnd.Before(hi) {
			hi = winEnd
		}
		if hi.After(lo) {
			total += hi.Sub(lo)
		}
		day = day.AddDate(0, 0, 1)
	}
	return int(total / time.Minute)
}
