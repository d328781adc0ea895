package report

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/report"
)

type ReportServiceImpl struct {
	builder     report.Builder
	summaryRepo report.MonthlySummaryRepository
}

func NewReportService(builder report.Builder, summaryRepo report.MonthlySummaryRepository) report.ReportService {
	return &ReportServiceImpl{
		builder:     builder,
		summaryRepo: summaryRepo,
	}
}

func (s *ReportServiceImpl) GetAttendanceReport(ctx context.Context, req report.AttendanceReportRequest) (report.AttendanceReport, error) {
	year, month, err := req.Parse()
	if err != nil {
		return report.AttendanceReport{}, err
	}
	return s.builder.Build(ctx, req.EmployeeID, year, month)
}

// GetMonthlySummary rebuilds the month so the counters follow attendance and
// holiday edits. The stored row is served only when the rebuild fails.
func (s *ReportServiceImpl) GetMonthlySummary(ctx context.Context, req report.AttendanceReportRequest) (report.MonthlySummary, error) {
	year, month, err := req.Parse()
	if err != nil {
		return report.MonthlySummary{}, err
	}

	rep, buildErr := s.builder.Build(ctx, req.EmployeeID, year, month)
	if buildErr == nil {
		return rep.Summary, nil
	}

	summary, err := s.summaryRepo.Get(ctx, req.EmployeeID, year, month)
	if err != nil {
		if !errors.Is(err, report.ErrMonthlySummaryNotFound) {
			slog.Warn("Failed to read stored monthly summary", "employee_id", req.EmployeeID, "error", err)
		}
		return report.MonthlySummary{}, buildErr
	}
	slog.Warn("Serving stored monthly summary after rebuild failed",
		"employee_id", req.EmployeeID,
		"year", year,
		"month", month,
		"error", buildErr,
	)
	return summary, nil
}
