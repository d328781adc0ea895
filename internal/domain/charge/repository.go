package charge

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
)

type ChargeRateRepository interface {
	List(ctx context.Context) ([]ChargeRate, error)
	Upsert(ctx context.Context, rate ChargeRate) (ChargeRate, error)
	Delete(ctx context.Context, code employee.DeductionFlag) error
}
