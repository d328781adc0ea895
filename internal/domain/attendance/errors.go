package attendance

import "errors"

var (
	ErrAttendanceDayNotFound = errors.New("attendance day not found")
	ErrDuplicatePunch        = errors.New("duplicate punch received within debounce window")
	ErrInvalidPunchType      = errors.New("punch type must be IN or OUT")
	ErrInvalidStatus         = errors.New("invalid attendance status")
	ErrInvalidShiftHours     = errors.New("shift hours must be greater than zero")
	ErrBucketMismatch        = errors.New("overtime buckets do not sum to overtime hours")
	ErrHolidayExists         = errors.New("holiday already exists on this date")
	ErrHolidayNotFound       = errors.New("holiday not found")
)
