package payroll

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
)

// Calculator computes one employee's line item for a window.
type Calculator interface {
	Calculate(ctx context.Context, emp employee.Employee, from, to time.Time) (LineItem, error)
}

// Trigger schedules a background rebuild of a month. It never blocks the caller.
type Trigger interface {
	Enqueue(monthKey string) bool
}

// TriggerFunc adapts a function to Trigger.
type TriggerFunc func(monthKey string) bool

func (f TriggerFunc) Enqueue(monthKey string) bool {
	return f(monthKey)
}

// CacheManager owns the monthly payroll records.
type CacheManager interface {
	Recalculate(ctx context.Context, monthKey string) (MonthlyRecord, error)
	Get(ctx context.Context, from, to time.Time) (PayrollView, error)
	Exists(ctx context.Context, monthKey string) (bool, error)
	UpdateItemStatus(ctx context.Context, req UpdateItemStatusRequest) (LineItem, error)
}

type PayrollService interface {
	GetPayroll(ctx context.Context, from, to time.Time) (PayrollView, error)
	GetMonth(ctx context.Context, monthKey string) (PayrollView, error)
	Exists(ctx context.Context, monthKey string) (MonthExistsResponse, error)
	RecalculateNow(ctx context.Context, monthKey string) (PayrollView, error)
	RequestRecalculation(ctx context.Context, monthKey string) (RecalculationResponse, error)
	UpdateItemStatus(ctx context.Context, req UpdateItemStatusRequest) (LineItem, error)
	CalculateEmployee(ctx context.Context, employeeID string, from, to time.Time) (LineItem, error)
}
