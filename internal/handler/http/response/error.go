package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/charge"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, jwt.ErrAdminRequired):
		Forbidden(w, err.Error())

	// Not found
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, attendance.ErrAttendanceDayNotFound):
		NotFound(w, "Attendance day not found")
	case errors.Is(err, attendance.ErrHolidayNotFound):
		NotFound(w, "Holiday not found")
	case errors.Is(err, policy.ErrSubUnitNotFound):
		NotFound(w, "Sub-unit not found")
	case errors.Is(err, policy.ErrPolicyOverrideNotFound):
		NotFound(w, "Salary policy override not found")
	case errors.Is(err, charge.ErrChargeRateNotFound):
		NotFound(w, "Charge rate not found")
	case errors.Is(err, loan.ErrLoanNotFound):
		NotFound(w, "Loan not found")
	case errors.Is(err, payroll.ErrMonthlyPayrollNotFound):
		NotFound(w, "Monthly payroll has not been calculated")
	case errors.Is(err, payroll.ErrPayrollItemNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, report.ErrMonthlySummaryNotFound):
		NotFound(w, "Monthly summary not found")

	// Bad input
	case errors.Is(err, period.ErrInvalidMonthKey),
		errors.Is(err, period.ErrInvalidPeriod),
		errors.Is(err, report.ErrInvalidReportMonth),
		errors.Is(err, attendance.ErrInvalidPunchType),
		errors.Is(err, attendance.ErrInvalidStatus),
		errors.Is(err, charge.ErrInvalidChargeCode),
		errors.Is(err, loan.ErrInvalidLoanType),
		errors.Is(err, loan.ErrInvalidInstallmentCount),
		errors.Is(err, payroll.ErrInvalidItemStatus),
		errors.Is(err, policy.ErrInvalidWorkingDays):
		BadRequest(w, err.Error(), nil)

	// Bad configuration data that blocks a calculation
	case errors.Is(err, employee.ErrInvalidShiftText),
		errors.Is(err, employee.ErrInvalidSalaryType),
		errors.Is(err, policy.ErrInvalidShiftHours),
		errors.Is(err, policy.ErrInvalidNightStartHour),
		errors.Is(err, policy.ErrInvalidAutopayWindow),
		errors.Is(err, attendance.ErrInvalidShiftHours):
		UnprocessableEntity(w, err.Error())

	// Conflicts
	case errors.Is(err, attendance.ErrDuplicatePunch):
		Conflict(w, "Duplicate punch received, please wait before punching again")
	case errors.Is(err, attendance.ErrHolidayExists):
		Conflict(w, "A holiday already exists on this date")
	case errors.Is(err, loan.ErrLoanAlreadyInactive):
		Conflict(w, "Loan is already inactive")
	case errors.Is(err, payroll.ErrRecalculationBusy):
		Conflict(w, "Payroll for this month is being recalculated, try again shortly")

	case errors.Is(err, payroll.ErrQueueFull):
		ServiceUnavailable(w, "Recalculation queue is full, try again shortly")
	case errors.Is(err, context.DeadlineExceeded):
		slog.Error("Request timed out", "error", err)
		GatewayTimeout(w, "Calculation timed out")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
