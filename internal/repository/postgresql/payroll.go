package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type monthlyPayrollRepositoryImpl struct {
	db *database.DB
}

func NewMonthlyPayrollRepository(db *database.DB) payroll.MonthlyPayrollRepository {
	return &monthlyPayrollRepositoryImpl{db: db}
}

const monthlyPayrollColumns = `
	id, month_key, window_start, window_end, items, summary, total_records,
	calculated_at, created_at, updated_at`

func scanMonthlyRecord(row pgx.Row) (payroll.MonthlyRecord, error) {
	var rec payroll.MonthlyRecord
	var itemsJSON, summaryJSON []byte
	err := row.Scan(
		&rec.ID, &rec.MonthKey, &rec.WindowStart, &rec.WindowEnd, &itemsJSON, &summaryJSON, &rec.TotalRecords,
		&rec.CalculatedAt, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return payroll.MonthlyRecord{}, err
	}
	if err := json.Unmarshal(itemsJSON, &rec.Items); err != nil {
		return payroll.MonthlyRecord{}, fmt.Errorf("failed to unmarshal payroll items: %w", err)
	}
	if err := json.Unmarshal(summaryJSON, &rec.Summary); err != nil {
		return payroll.MonthlyRecord{}, fmt.Errorf("failed to unmarshal payroll summary: %w", err)
	}
	return rec, nil
}

func (r *monthlyPayrollRepositoryImpl) getByMonthKey(ctx context.Context, monthKey string, forUpdate bool) (payroll.MonthlyRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + monthlyPayrollColumns + `
		FROM monthly_payrolls
		WHERE month_key = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rec, err := scanMonthlyRecord(q.QueryRow(ctx, query, monthKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.MonthlyRecord{}, payroll.ErrMonthlyPayrollNotFound
		}
		return payroll.MonthlyRecord{}, fmt.Errorf("failed to get monthly payroll %s: %w", monthKey, err)
	}
	return rec, nil
}

// GetByMonthKey implements payroll.MonthlyPayrollRepository.
func (r *monthlyPayrollRepositoryImpl) GetByMonthKey(ctx context.Context, monthKey string) (payroll.MonthlyRecord, error) {
	return r.getByMonthKey(ctx, monthKey, false)
}

// GetByMonthKeyForUpdate implements payroll.MonthlyPayrollRepository.
func (r *monthlyPayrollRepositoryImpl) GetByMonthKeyForUpdate(ctx context.Context, monthKey string) (payroll.MonthlyRecord, error) {
	return r.getByMonthKey(ctx, monthKey, true)
}

// Exists implements payroll.MonthlyPayrollRepository.
func (r *monthlyPayrollRepositoryImpl) Exists(ctx context.Context, monthKey string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM monthly_payrolls WHERE month_key = $1)`, monthKey).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check monthly payroll %s: %w", monthKey, err)
	}
	return exists, nil
}

// Upsert implements payroll.MonthlyPayrollRepository.
func (r *monthlyPayrollRepositoryImpl) Upsert(ctx context.Context, record payroll.MonthlyRecord) (payroll.MonthlyRecord, error) {
	q := GetQuerier(ctx, r.db)

	items := record.Items
	if items == nil {
		items = []payroll.LineItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return payroll.MonthlyRecord{}, fmt.Errorf("failed to marshal payroll items: %w", err)
	}
	summaryJSON, err := json.Marshal(record.Summary)
	if err != nil {
		return payroll.MonthlyRecord{}, fmt.Errorf("failed to marshal payroll summary: %w", err)
	}

	query := `
		INSERT INTO monthly_payrolls (month_key, window_start, window_end, items, summary, total_records, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (month_key) DO UPDATE SET
			window_start = EXCLUDED.window_start,
			window_end = EXCLUDED.window_end,
			items = EXCLUDED.items,
			summary = EXCLUDED.summary,
			total_records = EXCLUDED.total_records,
			calculated_at = EXCLUDED.calculated_at,
			updated_at = NOW()
		RETURNING ` + monthlyPayrollColumns

	saved, err := scanMonthlyRecord(q.QueryRow(ctx, query,
		record.MonthKey, record.WindowStart, record.WindowEnd, itemsJSON, summaryJSON,
		record.TotalRecords, record.CalculatedAt,
	))
	if err != nil {
		return payroll.MonthlyRecord{}, fmt.Errorf("failed to upsert monthly payroll %s: %w", record.MonthKey, err)
	}
	return saved, nil
}
