package employee

import "errors"

var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrInvalidShiftText  = errors.New("shift text must contain a positive number of hours")
	ErrInvalidSalaryType = errors.New("salary type must be monthly or daily")
)
