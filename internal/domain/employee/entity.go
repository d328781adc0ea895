package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is the slice of the HR employee record the payroll engine consumes.
type Employee struct {
	ID               string
	EmployeeCode     string
	FullName         string
	SubUnitID        *string
	Salary           decimal.Decimal
	SalaryType       SalaryType
	ShiftText        string
	DeductionFlags   []DeductionFlag
	EmploymentStatus EmploymentStatus
	JoinDate         time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type SalaryType string

const (
	SalaryTypeMonthly SalaryType = "monthly"
	SalaryTypeDaily   SalaryType = "daily"
)

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// DeductionFlag opts an employee into one global charge rate.
type DeductionFlag string

const (
	DeductionTDS       DeductionFlag = "tds"
	DeductionPTax      DeductionFlag = "ptax"
	DeductionLWF       DeductionFlag = "lwf"
	DeductionESI       DeductionFlag = "esi"
	DeductionPF        DeductionFlag = "pf"
	DeductionOTPF      DeductionFlag = "ot_pf"
	DeductionInsurance DeductionFlag = "insurance"
)

func (e Employee) HasDeduction(flag DeductionFlag) bool {
	for _, f := range e.DeductionFlags {
		if f == flag {
			return true
		}
	}
	return false
}

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}
