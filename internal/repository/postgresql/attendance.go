package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db}
}

const attendanceDayColumns = `
	id, employee_id, date, status, punches, is_weekend, is_holiday,
	total_hours, regular_hours, overtime_hours, day_ot_hours, night_ot_hours, sunday_ot_hours, festival_ot_hours,
	last_in_at, last_out_at, created_at, updated_at`

// Punches are stored as JSONB so each timestamp keeps the offset it was punched with.
func scanAttendanceDay(row pgx.Row) (attendance.AttendanceDay, error) {
	var day attendance.AttendanceDay
	var punchesJSON []byte
	err := row.Scan(
		&day.ID, &day.EmployeeID, &day.Date, &day.Status, &punchesJSON, &day.IsWeekend, &day.IsHoliday,
		&day.Hours.Total, &day.Hours.Regular, &day.Hours.Overtime,
		&day.Hours.DayOT, &day.Hours.NightOT, &day.Hours.SundayOT, &day.Hours.FestivalOT,
		&day.LastInAt, &day.LastOutAt, &day.CreatedAt, &day.UpdatedAt,
	)
	if err != nil {
		return attendance.AttendanceDay{}, err
	}
	if len(punchesJSON) > 0 {
		if err := json.Unmarshal(punchesJSON, &day.Punches); err != nil {
			return attendance.AttendanceDay{}, fmt.Errorf("failed to unmarshal punches: %w", err)
		}
	}
	return day, nil
}

// GetDay implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetDay(ctx context.Context, employeeID string, date time.Time) (attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceDayColumns + `
		FROM attendance_days
		WHERE employee_id = $1 AND date = $2
	`

	day, err := scanAttendanceDay(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceDay{}, attendance.ErrAttendanceDayNotFound
		}
		return attendance.AttendanceDay{}, fmt.Errorf("failed to get attendance day: %w", err)
	}
	return day, nil
}

// ListByEmployeeAndRange implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceDayColumns + `
		FROM attendance_days
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance days: %w", err)
	}
	defer rows.Close()

	var days []attendance.AttendanceDay
	for rows.Next() {
		day, err := scanAttendanceDay(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return days, nil
}

// Upsert implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Upsert(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	punches := day.Punches
	if punches == nil {
		punches = []attendance.PunchEvent{}
	}
	punchesJSON, err := json.Marshal(punches)
	if err != nil {
		return attendance.AttendanceDay{}, fmt.Errorf("failed to marshal punches: %w", err)
	}

	query := `
		INSERT INTO attendance_days (
			employee_id, date, status, punches, is_weekend, is_holiday,
			total_hours, regular_hours, overtime_hours, day_ot_hours, night_ot_hours, sunday_ot_hours, festival_ot_hours,
			last_in_at, last_out_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			punches = EXCLUDED.punches,
			is_weekend = EXCLUDED.is_weekend,
			is_holiday = EXCLUDED.is_holiday,
			total_hours = EXCLUDED.total_hours,
			regular_hours = EXCLUDED.regular_hours,
			overtime_hours = EXCLUDED.overtime_hours,
			day_ot_hours = EXCLUDED.day_ot_hours,
			night_ot_hours = EXCLUDED.night_ot_hours,
			sunday_ot_hours = EXCLUDED.sunday_ot_hours,
			festival_ot_hours = EXCLUDED.festival_ot_hours,
			last_in_at = EXCLUDED.last_in_at,
			last_out_at = EXCLUDED.last_out_at,
			updated_at = NOW()
		RETURNING ` + attendanceDayColumns

	h := day.Hours
	saved, err := scanAttendanceDay(q.QueryRow(ctx, query,
		day.EmployeeID, day.Date, day.Status, punchesJSON, day.IsWeekend, day.IsHoliday,
		h.Total, h.Regular, h.Overtime, h.DayOT, h.NightOT, h.SundayOT, h.FestivalOT,
		day.LastInAt, day.LastOutAt,
	))
	if err != nil {
		return attendance.AttendanceDay{}, fmt.Errorf("failed to upsert attendance day: %w", err)
	}
	return saved, nil
}

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) attendance.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

// ListByRange implements attendance.HolidayRepository.
func (r *holidayRepositoryImpl) ListByRange(ctx context.Context, from, to time.Time) ([]attendance.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, date, name, created_at
		FROM holidays
		WHERE date BETWEEN $1 AND $2
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []attendance.Holiday
	for rows.Next() {
		var h attendance.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name, &h.CreatedAt); err != nil {
			return nil, err
		}
		holidays = append(holidays, h)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return holidays, nil
}

// Create implements attendance.HolidayRepository.
func (r *holidayRepositoryImpl) Create(ctx context.Context, holiday attendance.Holiday) (attendance.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO holidays (date, name)
		VALUES ($1, $2)
		RETURNING id, date, name, created_at
	`

	var created attendance.Holiday
	err := q.QueryRow(ctx, query, holiday.Date, holiday.Name).Scan(&created.ID, &created.Date, &created.Name, &created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Holiday{}, attendance.ErrHolidayExists
		}
		return attendance.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	return created, nil
}

// Delete implements attendance.HolidayRepository.
func (r *holidayRepositoryImpl) Delete(ctx context.Context, id string) (attendance.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		DELETE FROM holidays
		WHERE id = $1
		RETURNING id, date, name, created_at
	`

	var deleted attendance.Holiday
	err := q.QueryRow(ctx, query, id).Scan(&deleted.ID, &deleted.Date, &deleted.Name, &deleted.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Holiday{}, attendance.ErrHolidayNotFound
		}
		return attendance.Holiday{}, fmt.Errorf("failed to delete holiday: %w", err)
	}
	return deleted, nil
}
