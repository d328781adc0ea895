package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidMonthKey = errors.New("invalid month key, expected YYYY-M")
	ErrInvalidPeriod   = errors.New("period end is before start")
)

// Date truncates t to a calendar date at UTC midnight, keeping t's wall-clock date.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDate builds a calendar date at UTC midnight.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Period is an inclusive range of calendar dates [Start, End].
type Period struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (Period, error) {
	p := Period{Start: Date(start), End: Date(end)}
	if p.End.Before(p.Start) {
		return Period{}, ErrInvalidPeriod
	}
	return p, nil
}

// Month returns the full calendar month period.
func Month(year int, month time.Month) Period {
	start := NewDate(year, month, 1)
	return Period{Start: start, End: start.AddDate(0, 1, -1)}
}

// Contains reports whether d falls inside [Start, End].
func (p Period) Contains(d time.Time) bool {
	d = Date(d)
	return !d.Before(p.Start) && !d.After(p.End)
}

// DayCount is the number of calendar days in the period, both ends included.
func (p Period) DayCount() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Days returns all days in the period.
func (p Period) Days() []time.Time {
	days := make([]time.Time, 0, p.DayCount())
	for d := p.Start; !d.After(p.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// IsFullMonth reports whether the period covers exactly one calendar month.
func (p Period) IsFullMonth() bool {
	return p == Month(p.Start.Year(), p.Start.Month())
}

// MonthKey formats the month containing Start as "YYYY-M".
func (p Period) MonthKey() string {
	return MonthKey(p.Start.Year(), p.Start.Month())
}

// MonthKeys lists every month the period touches, oldest first.
func (p Period) MonthKeys() []string {
	var keys []string
	for m := NewDate(p.Start.Year(), p.Start.Month(), 1); !m.After(p.End); m = m.AddDate(0, 1, 0) {
		keys = append(keys, MonthKey(m.Year(), m.Month()))
	}
	return keys
}

func (p Period) String() string {
	return "[" + p.Start.Format(time.DateOnly) + ", " + p.End.Format(time.DateOnly) + "]"
}

func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%d-%d", year, int(month))
}

// MonthKeyOf returns the month key of the date d.
func MonthKeyOf(d time.Time) string {
	return MonthKey(d.Year(), d.Month())
}

// PreviousMonthGraceDays keeps last month open while late punches and edits for
// it are still arriving.
const PreviousMonthGraceDays = 3

// OpenMonthKeys returns the month of today, plus the previous month during its
// first PreviousMonthGraceDays days.
func OpenMonthKeys(today time.Time) []string {
	keys := []string{MonthKeyOf(today)}
	if today.Day() <= PreviousMonthGraceDays {
		keys = append(keys, MonthKeyOf(today.AddDate(0, 0, -today.Day())))
	}
	return keys
}

// ParseMonthKey accepts "YYYY-M" and the zero-padded "YYYY-MM".
func ParseMonthKey(key string) (int, time.Month, error) {
	parts := strings.Split(key, "-")
	if len(parts) != 2 {
		return 0, 0, ErrInvalidMonthKey
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 || len(parts[0]) != 4 {
		return 0, 0, ErrInvalidMonthKey
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return 0, 0, ErrInvalidMonthKey
	}
	return year, time.Month(month), nil
}

// MonthOfKey parses key and returns its full month period.
func MonthOfKey(key string) (Period, error) {
	year, month, err := ParseMonthKey(key)
	if err != nil {
		return Period{}, err
	}
	return Month(year, month), nil
}

// MonthsElapsed counts calendar-month boundaries crossed from a to b.
// It is negative when b is in an earlier month than a.
func MonthsElapsed(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}
