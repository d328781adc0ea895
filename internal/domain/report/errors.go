package report

import "errors"

var (
	ErrMonthlySummaryNotFound = errors.New("monthly summary not found")
	ErrInvalidReportMonth     = errors.New("invalid report month")
)
