package loan

import "context"

type LoanRepository interface {
	GetByID(ctx context.Context, id string) (Loan, error)
	ListByEmployee(ctx context.Context, employeeID string, activeOnly bool) ([]Loan, error)
	Create(ctx context.Context, newLoan Loan) (Loan, error)
	Deactivate(ctx context.Context, id string) (Loan, error)
}
