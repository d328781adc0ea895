package attendance

import (
	"context"
	"time"
)

type AttendanceRepository interface {
	// GetDay returns ErrAttendanceDayNotFound when no record exists.
	GetDay(ctx context.Context, employeeID string, date time.Time) (AttendanceDay, error)

	ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]AttendanceDay, error)

	// Upsert writes the whole day keyed by (employee, date).
	Upsert(ctx context.Context, day AttendanceDay) (AttendanceDay, error)
}

type HolidayRepository interface {
	ListByRange(ctx context.Context, from, to time.Time) ([]Holiday, error)
	Create(ctx context.Context, holiday Holiday) (Holiday, error)
	Delete(ctx context.Context, id string) (Holiday, error)
}
