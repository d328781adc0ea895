package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type policyRepositoryImpl struct {
	db *database.DB
}

func NewPolicyRepository(db *database.DB) policy.PolicyRepository {
	return &policyRepositoryImpl{db: db}
}

const policyOverrideColumns = `
	sub_unit_id, fixed_salary, allow_day_ot, allow_night_ot, allow_sunday_ot, allow_festival_ot,
	shift_hours, working_days_per_week, sunday_autopay_window_days, festival_autopay_window_days,
	paid_holidays_per_month, night_start_hour, updated_at`

func scanPolicyOverride(row pgx.Row) (policy.PolicyOverride, error) {
	var o policy.PolicyOverride
	err := row.Scan(
		&o.SubUnitID, &o.FixedSalary, &o.AllowDayOT, &o.AllowNightOT, &o.AllowSundayOT, &o.AllowFestivalOT,
		&o.ShiftHours, &o.WorkingDaysPerWeek, &o.SundayAutopayWindowDays, &o.FestivalAutopayWindowDays,
		&o.PaidHolidaysPerMonth, &o.NightStartHour, &o.UpdatedAt,
	)
	return o, err
}

// GetSubUnit implements policy.PolicyRepository.
func (r *policyRepositoryImpl) GetSubUnit(ctx context.Context, id string) (policy.SubUnit, error) {
	q := GetQuerier(ctx, r.db)

	var unit policy.SubUnit
	err := q.QueryRow(ctx, `SELECT id, name FROM sub_units WHERE id = $1`, id).Scan(&unit.ID, &unit.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return policy.SubUnit{}, policy.ErrSubUnitNotFound
		}
		return policy.SubUnit{}, fmt.Errorf("failed to get sub-unit with id %s: %w", id, err)
	}
	return unit, nil
}

// GetOverride implements policy.PolicyRepository.
func (r *policyRepositoryImpl) GetOverride(ctx context.Context, subUnitID string) (policy.PolicyOverride, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + policyOverrideColumns + `
		FROM salary_policy_overrides
		WHERE sub_unit_id = $1
	`

	o, err := scanPolicyOverride(q.QueryRow(ctx, query, subUnitID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return policy.PolicyOverride{}, policy.ErrPolicyOverrideNotFound
		}
		return policy.PolicyOverride{}, fmt.Errorf("failed to get salary policy override: %w", err)
	}
	return o, nil
}

// UpsertOverride implements policy.PolicyRepository. Nil fields are stored as NULL
// and fall back to the default policy.
func (r *policyRepositoryImpl) UpsertOverride(ctx context.Context, o policy.PolicyOverride) (policy.PolicyOverride, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO salary_policy_overrides (
			sub_unit_id, fixed_salary, allow_day_ot, allow_night_ot, allow_sunday_ot, allow_festival_ot,
			shift_hours, working_days_per_week, sunday_autopay_window_days, festival_autopay_window_days,
			paid_holidays_per_month, night_start_hour
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (sub_unit_id) DO UPDATE SET
			fixed_salary = EXCLUDED.fixed_salary,
			allow_day_ot = EXCLUDED.allow_day_ot,
			allow_night_ot = EXCLUDED.allow_night_ot,
			allow_sunday_ot = EXCLUDED.allow_sunday_ot,
			allow_festival_ot = EXCLUDED.allow_festival_ot,
			shift_hours = EXCLUDED.shift_hours,
			working_days_per_week = EXCLUDED.working_days_per_week,
			sunday_autopay_window_days = EXCLUDED.sunday_autopay_window_days,
			festival_autopay_window_days = EXCLUDED.festival_autopay_window_days,
			paid_holidays_per_month = EXCLUDED.paid_holidays_per_month,
			night_start_hour = EXCLUDED.night_start_hour,
			updated_at = NOW()
		RETURNING ` + policyOverrideColumns

	saved, err := scanPolicyOverride(q.QueryRow(ctx, query,
		o.SubUnitID, o.FixedSalary, o.AllowDayOT, o.AllowNightOT, o.AllowSundayOT, o.AllowFestivalOT,
		o.ShiftHours, o.WorkingDaysPerWeek, o.SundayAutopayWindowDays, o.FestivalAutopayWindowDays,
		o.PaidHolidaysPerMonth, o.NightStartHour,
	))
	if err != nil {
		return policy.PolicyOverride{}, fmt.Errorf("failed to upsert salary policy override: %w", err)
	}
	return saved, nil
}

// DeleteOverride implements policy.PolicyRepository.
func (r *policyRepositoryImpl) DeleteOverride(ctx context.Context, subUnitID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM salary_policy_overrides WHERE sub_unit_id = $1`, subUnitID)
	if err != nil {
		return fmt.Errorf("failed to delete salary policy override: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return policy.ErrPolicyOverrideNotFound
	}
	return nil
}
