package charge

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/shopspring/decimal"
)

type ValueType string

const (
	ValueTypeFixed      ValueType = "fixed"
	ValueTypePercentage ValueType = "percentage"
)

// ChargeRate is a global named deduction. Codes match employee deduction flags.
type ChargeRate struct {
	Code      employee.DeductionFlag
	ValueType ValueType
	Value     decimal.Decimal
	UpdatedAt time.Time
}

var hundred = decimal.NewFromInt(100)

// Apply returns the deduction for a pay base. Fixed charges ignore the base.
func (c ChargeRate) Apply(base decimal.Decimal) decimal.Decimal {
	if c.ValueType == ValueTypePercentage {
		return base.Mul(c.Value).Div(hundred).Round(2)
	}
	return c.Value
}

// Codes lists every supported charge in display order.
func Codes() []employee.DeductionFlag {
	return []employee.DeductionFlag{
		employee.DeductionTDS,
		employee.DeductionPTax,
		employee.DeductionLWF,
		employee.DeductionESI,
		employee.DeductionPF,
		employee.DeductionOTPF,
		employee.DeductionInsurance,
	}
}

func IsValidCode(code employee.DeductionFlag) bool {
	for _, c := range Codes() {
		if c == code {
			return true
		}
	}
	return false
}
