package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type monthlySummaryRepositoryImpl struct {
	db *database.DB
}

func NewMonthlySummaryRepository(db *database.DB) report.MonthlySummaryRepository {
	return &monthlySummaryRepositoryImpl{db: db}
}

const monthlySummaryColumns = `
	employee_id, year, month, total_present, total_absent, total_halfday, total_leave, total_festival,
	working_days, hours_worked, overtime_hours, updated_at`

func scanMonthlySummary(row pgx.Row) (report.MonthlySummary, error) {
	var s report.MonthlySummary
	err := row.Scan(
		&s.EmployeeID, &s.Year, &s.Month, &s.TotalPresent, &s.TotalAbsent, &s.TotalHalfDay, &s.TotalLeave,
		&s.TotalFestival, &s.WorkingDays, &s.HoursWorked, &s.OvertimeHours, &s.UpdatedAt,
	)
	return s, err
}

// Upsert implements report.MonthlySummaryRepository.
func (r *monthlySummaryRepositoryImpl) Upsert(ctx context.Context, s report.MonthlySummary) (report.MonthlySummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO monthly_attendance_summaries (
			employee_id, year, month, total_present, total_absent, total_halfday, total_leave, total_festival,
			working_days, hours_worked, overtime_hours
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (employee_id, year, month) DO UPDATE SET
			total_present = EXCLUDED.total_present,
			total_absent = EXCLUDED.total_absent,
			total_halfday = EXCLUDED.total_halfday,
			total_leave = EXCLUDED.total_leave,
			total_festival = EXCLUDED.total_festival,
			working_days = EXCLUDED.working_days,
			hours_worked = EXCLUDED.hours_worked,
			overtime_hours = EXCLUDED.overtime_hours,
			updated_at = NOW()
		RETURNING ` + monthlySummaryColumns

	saved, err := scanMonthlySummary(q.QueryRow(ctx, query,
		s.EmployeeID, s.Year, s.Month, s.TotalPresent, s.TotalAbsent, s.TotalHalfDay, s.TotalLeave, s.TotalFestival,
		s.WorkingDays, s.HoursWorked, s.OvertimeHours,
	))
	if err != nil {
		return report.MonthlySummary{}, fmt.Errorf("failed to upsert monthly summary: %w", err)
	}
	return saved, nil
}

// Get implements report.MonthlySummaryRepository.
func (r *monthlySummaryRepositoryImpl) Get(ctx context.Context, employeeID string, year, month int) (report.MonthlySummary, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + monthlySummaryColumns + `
		FROM monthly_attendance_summaries
		WHERE employee_id = $1 AND year = $2 AND month = $3
	`

	s, err := scanMonthlySummary(q.QueryRow(ctx, query, employeeID, year, month))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return report.MonthlySummary{}, report.ErrMonthlySummaryNotFound
		}
		return report.MonthlySummary{}, fmt.Errorf("failed to get monthly summary: %w", err)
	}
	return s, nil
}
