package charge

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type UpsertChargeRateRequest struct {
	Code      string          `json:"-"`
	ValueType ValueType       `json:"value_type"`
	Value     decimal.Decimal `json:"value"`
}

func (r *UpsertChargeRateRequest) Validate() error {
	var errs validator.ValidationErrors

	if !IsValidCode(employee.DeductionFlag(r.Code)) {
		errs = append(errs, validator.ValidationError{Field: "code", Message: "must be one of tds, ptax, lwf, esi, pf, ot_pf, insurance"})
	}
	if r.ValueType != ValueTypeFixed && r.ValueType != ValueTypePercentage {
		errs = append(errs, validator.ValidationError{Field: "value_type", Message: "must be 'fixed' or 'percentage'"})
	}
	if r.Value.IsNegative() {
		errs = append(errs, validator.ValidationError{Field: "value", Message: "must be non-negative"})
	}
	if r.ValueType == ValueTypePercentage && r.Value.GreaterThan(hundred) {
		errs = append(errs, validator.ValidationError{Field: "value", Message: "percentage must not exceed 100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ChargeRateResponse struct {
	Code      employee.DeductionFlag `json:"code"`
	ValueType ValueType              `json:"value_type"`
	Value     decimal.Decimal        `json:"value"`
	UpdatedAt time.Time              `json:"updated_at"`
}
