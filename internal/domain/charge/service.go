package charge

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
)

type ChargeService interface {
	// Rates returns the current rate table keyed by code, served from memory.
	Rates(ctx context.Context) (map[employee.DeductionFlag]ChargeRate, error)
	List(ctx context.Context) ([]ChargeRateResponse, error)
	Upsert(ctx context.Context, req UpsertChargeRateRequest) (ChargeRateResponse, error)
	Delete(ctx context.Context, code string) error
}
