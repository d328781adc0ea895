package policy

import "errors"

var (
	ErrSubUnitNotFound        = errors.New("sub-unit not found")
	ErrPolicyOverrideNotFound = errors.New("salary policy override not found")
	ErrInvalidShiftHours      = errors.New("shift hours must be greater than zero")
	ErrInvalidWorkingDays     = errors.New("working days per week must be 5 or 6")
	ErrInvalidNightStartHour  = errors.New("night start hour must be between 0 and 23")
	ErrInvalidAutopayWindow   = errors.New("autopay window days must not be negative")
)
