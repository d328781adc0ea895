package report

import (
	"strconv"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

type AttendanceReportRequest struct {
	EmployeeID string
	Year       string
	Month      string
}

// Parse validates the request and returns the numeric year and month.
func (r *AttendanceReportRequest) Parse() (int, int, error) {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "is required"})
	}
	year, err := strconv.Atoi(r.Year)
	if err != nil || year < 2000 || year > 2100 {
		errs = append(errs, validator.ValidationError{Field: "year", Message: "must be between 2000 and 2100"})
	}
	month, err := strconv.Atoi(r.Month)
	if err != nil || month < 1 || month > 12 {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "must be between 1 and 12"})
	}

	if len(errs) > 0 {
		return 0, 0, errs
	}
	return year, month, nil
}
