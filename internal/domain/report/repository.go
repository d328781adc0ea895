package report

import "context"

type MonthlySummaryRepository interface {
	// Upsert is idempotent on (employee, year, month).
	Upsert(ctx context.Context, summary MonthlySummary) (MonthlySummary, error)
	Get(ctx context.Context, employeeID string, year, month int) (MonthlySummary, error)
}
