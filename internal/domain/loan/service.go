package loan

import (
	"context"
	"time"
)

type LoanService interface {
	Create(ctx context.Context, req CreateLoanRequest) (LoanResponse, error)
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]LoanResponse, error)
	Deactivate(ctx context.Context, id string) error
}
