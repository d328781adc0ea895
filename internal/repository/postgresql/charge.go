package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/charge"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
)

type chargeRateRepositoryImpl struct {
	db *database.DB
}

func NewChargeRateRepository(db *database.DB) charge.ChargeRateRepository {
	return &chargeRateRepositoryImpl{db: db}
}

// List implements charge.ChargeRateRepository.
func (r *chargeRateRepositoryImpl) List(ctx context.Context) ([]charge.ChargeRate, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT code, value_type, value, updated_at FROM charge_rates ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list charge rates: %w", err)
	}
	defer rows.Close()

	var rates []charge.ChargeRate
	for rows.Next() {
		var c charge.ChargeRate
		if err := rows.Scan(&c.Code, &c.ValueType, &c.Value, &c.UpdatedAt); err != nil {
			return nil, err
		}
		rates = append(rates, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return rates, nil
}

// Upsert implements charge.ChargeRateRepository.
func (r *chargeRateRepositoryImpl) Upsert(ctx context.Context, rate charge.ChargeRate) (charge.ChargeRate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO charge_rates (code, value_type, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET
			value_type = EXCLUDED.value_type,
			value = EXCLUDED.value,
			updated_at = NOW()
		RETURNING code, value_type, value, updated_at
	`

	var saved charge.ChargeRate
	err := q.QueryRow(ctx, query, rate.Code, rate.ValueType, rate.Value).
		Scan(&saved.Code, &saved.ValueType, &saved.Value, &saved.UpdatedAt)
	if err != nil {
		return charge.ChargeRate{}, fmt.Errorf("failed to upsert charge rate %s: %w", rate.Code, err)
	}
	return saved, nil
}

// Delete implements charge.ChargeRateRepository.
func (r *chargeRateRepositoryImpl) Delete(ctx context.Context, code employee.DeductionFlag) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM charge_rates WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete charge rate %s: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return charge.ErrChargeRateNotFound
	}
	return nil
}
