package report

import "context"

// Builder assembles the calendar grid of one employee for one month.
type Builder interface {
	Build(ctx context.Context, employeeID string, year, month int) (AttendanceReport, error)
}

type ReportService interface {
	GetAttendanceReport(ctx context.Context, req AttendanceReportRequest) (AttendanceReport, error)
	GetMonthlySummary(ctx context.Context, req AttendanceReportRequest) (MonthlySummary, error)
}
