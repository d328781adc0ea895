package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/charge"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
	loanService "github.com/cmlabs-hris/hris-payroll-go/internal/service/loan"
	policyService "github.com/cmlabs-hris/hris-payroll-go/internal/service/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
)

// RateSource serves the current charge-rate table.
type RateSource interface {
	Rates(ctx context.Context) (map[employee.DeductionFlag]charge.ChargeRate, error)
}

type CalculatorImpl struct {
	attendanceRepo attendance.AttendanceRepository
	holidayRepo    attendance.HolidayRepository
	loanRepo       loan.LoanRepository
	resolver       policy.Resolver
	rates          RateSource
	hours          attendance.HoursCalculator
	now            func() time.Time
}

func NewCalculator(
	attendanceRepo attendance.AttendanceRepository,
	holidayRepo attendance.HolidayRepository,
	loanRepo loan.LoanRepository,
	resolver policy.Resolver,
	rates RateSource,
	hours attendance.HoursCalculator,
) *CalculatorImpl {
	return &CalculatorImpl{
		attendanceRepo: attendanceRepo,
		holidayRepo:    holidayRepo,
		loanRepo:       loanRepo,
		resolver:       resolver,
		rates:          rates,
		hours:          hours,
		now:            time.Now,
	}
}

// Calculate computes emp's pay for the inclusive window [from, to].
func (c *CalculatorImpl) Calculate(ctx context.Context, emp employee.Employee, from, to time.Time) (payroll.LineItem, error) {
	window, err := period.New(from, to)
	if err != nil {
		return payroll.LineItem{}, err
	}

	pol, err := policyService.EffectivePolicy(ctx, c.resolver, emp.SubUnitID)
	if err != nil {
		return payroll.LineItem{}, fmt.Errorf("failed to resolve policy: %w", err)
	}
	shiftHours, err := policyService.ShiftHoursFor(emp, pol)
	if err != nil {
		return payroll.LineItem{}, err
	}

	worked, presentDays, err := c.sumHours(ctx, emp.ID, window, pol, shiftHours)
	if err != nil {
		return payroll.LineItem{}, err
	}

	item := payroll.LineItem{
		EmployeeID:      emp.ID,
		EmployeeCode:    emp.EmployeeCode,
		EmployeeName:    emp.FullName,
		SubUnitID:       emp.SubUnitID,
		SalaryType:      emp.SalaryType,
		Salary:          emp.Salary,
		FixedSalary:     pol.FixedSalary,
		ShiftHours:      shiftHours,
		DaysInWindow:    window.DayCount(),
		PresentDays:     presentDays,
		BasicHours:      worked.Regular,
		OTHours:         worked.Overtime,
		DayOTHours:      worked.DayOT,
		NightOTHours:    worked.NightOT,
		SundayOTHours:   worked.SundayOT,
		FestivalOTHours: worked.FestivalOT,
		Status:          payroll.ItemStatusCalculated,
	}

	perDay, perHour := Rates(emp, window.DayCount(), shiftHours)
	item.SalaryPerDay = perDay.Round(2)
	item.SalaryPerHour = perHour.Round(2)
	item.OTRate = perHour.Round(2)

	if pol.FixedSalary {
		item.BasicPay = emp.Salary.Round(2)
		item.OTPay = decimal.Zero
		if pol.AllowsAnyOT() {
			item.OTPay = perHour.Mul(hoursDecimal(worked.Overtime)).Round(2)
		}
	} else {
		item.BasicPay = perHour.Mul(hoursDecimal(worked.Regular)).Round(2)
		item.OTPay = perHour.Mul(hoursDecimal(worked.Overtime)).Round(2)
	}
	item.TotalPay = item.BasicPay.Add(item.OTPay)

	if err := c.applyDeductions(ctx, emp, window, &item); err != nil {
		return payroll.LineItem{}, err
	}

	item.NetPay = item.TotalPay.Sub(item.TotalDeductions)
	if item.NetPay.IsNegative() {
		item.Warnings = append(item.Warnings, payroll.WarningNegativeNet)
	}

	return item, nil
}

// sumHours walks the window's attendance days in date order, recomputing days
// with punches so an open IN counts up to now.
func (c *CalculatorImpl) sumHours(ctx context.Context, employeeID string, window period.Period, pol policy.SalaryPolicy, shiftHours float64) (attendance.Hours, int, error) {
	days, err := c.attendanceRepo.ListByEmployeeAndRange(ctx, employeeID, window.Start, window.End)
	if err != nil {
		return attendance.Hours{}, 0, fmt.Errorf("failed to list attendance: %w", err)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	holidays, err := c.holidayRepo.ListByRange(ctx, window.Start, window.End)
	if err != nil {
		return attendance.Hours{}, 0, fmt.Errorf("failed to list holidays: %w", err)
	}
	isHoliday := make(map[time.Time]bool, len(holidays))
	for _, h := range holidays {
		isHoliday[period.Date(h.Date)] = true
	}

	rules := attendanceService.NewOvertimeRules(pol, shiftHours, c.now())

	var total attendance.Hours
	present := 0
	for _, day := range days {
		day.IsWeekend = day.IsWeekend || pol.IsRestDay(day.Date)
		day.IsHoliday = day.IsHoliday || isHoliday[period.Date(day.Date)]
		day, _, err = attendanceService.Recompute(c.hours, day, rules.OptionsFor(day))
		if err != nil {
			return attendance.Hours{}, 0, fmt.Errorf("failed to recompute %s: %w", day.Date.Format(time.DateOnly), err)
		}
		if err := day.Hours.Check(); err != nil {
			return attendance.Hours{}, 0, fmt.Errorf("attendance day %s of %s: %w", day.Date.Format(time.DateOnly), employeeID, err)
		}
		total.Add(day.Hours)
		if day.Status == attendance.StatusPresent {
			present++
		}
	}
	return total.Rounded(), present, nil
}

func (c *CalculatorImpl) applyDeductions(ctx context.Context, emp employee.Employee, window period.Period, item *payroll.LineItem) error {
	item.Deductions = payroll.Deductions{
		TDS:       decimal.Zero,
		PTax:      decimal.Zero,
		LWF:       decimal.Zero,
		ESI:       decimal.Zero,
		PF:        decimal.Zero,
		OTPF:      decimal.Zero,
		Insurance: decimal.Zero,
	}

	if len(emp.DeductionFlags) > 0 {
		rates, err := c.rates.Rates(ctx)
		if err != nil {
			return err
		}
		for _, flag := range emp.DeductionFlags {
			rate, ok := rates[flag]
			if !ok {
				continue
			}
			base := item.BasicPay
			if flag == employee.DeductionOTPF {
				base = item.OTPay
			}
			item.Deductions.Set(flag, rate.Apply(base))
		}
	}

	loans, err := c.loanRepo.ListByEmployee(ctx, emp.ID, true)
	if err != nil && !errors.Is(err, loan.ErrLoanNotFound) {
		return fmt.Errorf("failed to list loans: %w", err)
	}
	summary, err := loanService.Summarize(loans, window.Start, window.End)
	if err != nil {
		return fmt.Errorf("employee %s: %w", emp.ID, err)
	}

	item.LoanPending = summary.LoanPending
	item.LoanReceived = summary.LoanReceived
	item.LoanDeducted = summary.LoanDeducted
	item.AdvanceDeducted = summary.AdvanceDeducted
	item.TotalDeductions = item.Deductions.Total().Add(summary.TotalDeducted())
	return nil
}

// Rates derives the unrounded per-day and per-hour rates. Daily employees carry
// their day rate in Salary; monthly salaries are prorated by the window length.
// Overtime is paid at the hourly rate.
func Rates(emp employee.Employee, daysInWindow int, shiftHours float64) (perDay, perHour decimal.Decimal) {
	perDay = emp.Salary
	if emp.SalaryType != employee.SalaryTypeDaily && daysInWindow > 0 {
		perDay = emp.Salary.Div(decimal.NewFromInt(int64(daysInWindow)))
	}
	if shiftHours <= 0 {
		return perDay, decimal.Zero
	}
	return perDay, perDay.Div(decimal.NewFromFloat(shiftHours))
}

func hoursDecimal(h float64) decimal.Decimal {
	return decimal.NewFromFloat(h).Round(2)
}
