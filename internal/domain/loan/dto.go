package loan

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type CreateLoanRequest struct {
	EmployeeID       string          `json:"-"`
	Type             Type            `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	InstallmentCount int             `json:"installment_count"`
	StartDate        string          `json:"start_date"`
}

func (r *CreateLoanRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	if r.Type != TypeLoan && r.Type != TypeAdvance {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be 'loan' or 'advance'"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{Field: "amount", Message: "must be greater than zero"})
	}
	if r.Type == TypeLoan {
		if r.InstallmentCount <= 0 {
			errs = append(errs, validator.ValidationError{Field: "installment_count", Message: "must be greater than zero"})
		}
		if _, ok := validator.IsValidDate(r.StartDate); !ok {
			errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be in YYYY-MM-DD format"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type LoanResponse struct {
	ID               string          `json:"id"`
	EmployeeID       string          `json:"employee_id"`
	Type             Type            `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	InstallmentCount int             `json:"installment_count,omitempty"`
	StartDate        *string         `json:"start_date,omitempty"`
	IsActive         bool            `json:"is_active"`
	Amortization     *Amortization   `json:"amortization,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
