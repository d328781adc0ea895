package attendance

import (
	"context"
	"time"
)

// HoursCalculator turns one day's punches into classified hours.
type HoursCalculator interface {
	Calculate(events []PunchEvent, opts HoursOptions) (HoursResult, error)
}

type AttendanceService interface {
	// RecordPunch appends a punch to the employee's attendance-day and recomputes it.
	RecordPunch(ctx context.Context, req PunchRequest) (AttendanceDayResponse, error)

	// RecordManualEntry creates or overwrites a day's status without punches (leave, absent, halfday).
	RecordManualEntry(ctx context.Context, req ManualEntryRequest) (AttendanceDayResponse, error)

	ListDays(ctx context.Context, employeeID string, from, to time.Time) ([]AttendanceDayResponse, error)

	ListHolidays(ctx context.Context, from, to time.Time) ([]HolidayResponse, error)
	CreateHoliday(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error)
	DeleteHoliday(ctx context.Context, id string) error
}
