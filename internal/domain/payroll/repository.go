package payroll

import "context"

type MonthlyPayrollRepository interface {
	GetByMonthKey(ctx context.Context, monthKey string) (MonthlyRecord, error)

	// GetByMonthKeyForUpdate locks the row for the surrounding transaction.
	GetByMonthKeyForUpdate(ctx context.Context, monthKey string) (MonthlyRecord, error)

	Exists(ctx context.Context, monthKey string) (bool, error)

	// Upsert replaces the whole record keyed by MonthKey.
	Upsert(ctx context.Context, record MonthlyRecord) (MonthlyRecord, error)
}
