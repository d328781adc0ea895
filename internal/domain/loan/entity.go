package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeLoan    Type = "loan"
	TypeAdvance Type = "advance"
)

// Loan is a loan or salary advance. Advances ignore InstallmentCount and StartDate.
type Loan struct {
	ID               string
	EmployeeID       string
	Type             Type
	Amount           decimal.Decimal
	InstallmentCount int
	StartDate        time.Time
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Amortization is the state of one loan against a report window.
type Amortization struct {
	LoanID            string          `json:"loan_id"`
	Type              Type            `json:"type"`
	InstallmentAmount decimal.Decimal `json:"installment_amount"`
	PaidInstallments  int             `json:"paid_installments"`
	DueInWindow       int             `json:"installments_in_window"`
	Received          decimal.Decimal `json:"received"`
	Pending           decimal.Decimal `json:"pending"`
	DeductedInWindow  decimal.Decimal `json:"deducted_in_window"`
}

// Summary aggregates every active loan and advance of one employee.
type Summary struct {
	LoanPending     decimal.Decimal `json:"loan_pending"`
	LoanReceived    decimal.Decimal `json:"loan_received"`
	LoanDeducted    decimal.Decimal `json:"loan_deducted"`
	AdvanceDeducted decimal.Decimal `json:"advance_deducted"`
	Items           []Amortization  `json:"items"`
}

func (s Summary) TotalDeducted() decimal.Decimal {
	return s.LoanDeducted.Add(s.AdvanceDeducted)
}
