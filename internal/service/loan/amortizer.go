package loan

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
)

// InstallmentAmount is the fixed monthly deduction of a loan, rounded to cents.
// Advances have no installments; their full amount is the installment.
func InstallmentAmount(l loan.Loan) (decimal.Decimal, error) {
	if l.Type == loan.TypeAdvance {
		return l.Amount, nil
	}
	if l.InstallmentCount <= 0 {
		return decimal.Zero, loan.ErrInvalidInstallmentCount
	}
	return l.Amount.Div(decimal.NewFromInt(int64(l.InstallmentCount))).Round(2), nil
}

// PaidUpTo returns how many installments are due on or before d. The first
// installment falls in the start month itself.
func PaidUpTo(l loan.Loan, d time.Time) int {
	if l.InstallmentCount <= 0 {
		return 0
	}
	n := period.MonthsElapsed(l.StartDate, d) + 1
	if n < 0 {
		return 0
	}
	if n > l.InstallmentCount {
		return l.InstallmentCount
	}
	return n
}

// receivedUpTo is the cumulative amount recovered after paid installments. The
// last installment absorbs the rounding residue so a finished loan is recovered
// exactly.
func receivedUpTo(l loan.Loan, installment decimal.Decimal, paid int) decimal.Decimal {
	if paid >= l.InstallmentCount {
		return l.Amount
	}
	return installment.Mul(decimal.NewFromInt(int64(paid)))
}

// Amortize evaluates a loan or advance against the window [from, to].
func Amortize(l loan.Loan, from, to time.Time) (loan.Amortization, error) {
	switch l.Type {
	case loan.TypeAdvance:
		return loan.Amortization{
			LoanID:            l.ID,
			Type:              l.Type,
			InstallmentAmount: l.Amount,
			DueInWindow:       1,
			Pending:           l.Amount,
			DeductedInWindow:  l.Amount,
			Received:          decimal.Zero,
		}, nil
	case loan.TypeLoan:
	default:
		return loan.Amortization{}, loan.ErrInvalidLoanType
	}

	installment, err := InstallmentAmount(l)
	if err != nil {
		return loan.Amortization{}, err
	}

	from, to = period.Date(from), period.Date(to)
	paidTo := PaidUpTo(l, to)
	paidBefore := PaidUpTo(l, from.AddDate(0, 0, -1))

	received := receivedUpTo(l, installment, paidTo)
	pending := l.Amount.Sub(received)
	if pending.IsNegative() {
		pending = decimal.Zero
	}

	return loan.Amortization{
		LoanID:            l.ID,
		Type:              l.Type,
		InstallmentAmount: installment,
		PaidInstallments:  paidTo,
		DueInWindow:       paidTo - paidBefore,
		Received:          received,
		Pending:           pending,
		DeductedInWindow:  received.Sub(receivedUpTo(l, installment, paidBefore)),
	}, nil
}

// Summarize amortizes every active loan and advance independently and adds up
// the results. Inactive records are skipped.
func Summarize(loans []loan.Loan, from, to time.Time) (loan.Summary, error) {
	summary := loan.Summary{
		LoanPending:     decimal.Zero,
		LoanReceived:    decimal.Zero,
		LoanDeducted:    decimal.Zero,
		AdvanceDeducted: decimal.Zero,
		Items:           make([]loan.Amortization, 0, len(loans)),
	}

	for _, l := range loans {
		if !l.IsActive {
			continue
		}
		a, err := Amortize(l, from, to)
		if err != nil {
			return loan.Summary{}, err
		}
		switch l.Type {
		case loan.TypeAdvance:
			summary.AdvanceDeducted = summary.AdvanceDeducted.Add(a.DeductedInWindow)
		default:
			summary.LoanPending = summary.LoanPending.Add(a.Pending)
			summary.LoanReceived = summary.LoanReceived.Add(a.Received)
			summary.LoanDeducted = summary.LoanDeducted.Add(a.DeductedInWindow)
		}
		summary.Items = append(summary.Items, a)
	}

	return summary, nil
}
