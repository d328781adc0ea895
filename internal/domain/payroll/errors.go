package payroll

import "errors"

var (
	ErrMonthlyPayrollNotFound = errors.New("monthly payroll not found")
	ErrPayrollItemNotFound    = errors.New("employee not found in monthly payroll")
	ErrDuplicateEmployeeItem  = errors.New("monthly payroll contains duplicate employee items")
	ErrInvalidItemStatus      = errors.New("status must be Calculated or Paid")
	ErrRecalculationBusy      = errors.New("month is being recalculated by another instance")
	ErrQueueFull              = errors.New("recalculation queue is full")
)
