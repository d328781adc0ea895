package loan

import "errors"

var (
	ErrLoanNotFound            = errors.New("loan not found")
	ErrInvalidInstallmentCount = errors.New("installment count must be greater than zero")
	ErrInvalidLoanType         = errors.New("loan type must be loan or advance")
	ErrLoanAlreadyInactive     = errors.New("loan is already inactive")
)
