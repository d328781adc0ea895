package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/report"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
	policyService "github.com/cmlabs-hris/hris-payroll-go/internal/service/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
)

type BuilderImpl struct {
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	holidayRepo    attendance.HolidayRepository
	summaryRepo    report.MonthlySummaryRepository
	resolver       policy.Resolver
	hours          attendance.HoursCalculator
	now            func() time.Time
}

func NewBuilder(
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	holidayRepo attendance.HolidayRepository,
	summaryRepo report.MonthlySummaryRepository,
	resolver policy.Resolver,
	hours attendance.HoursCalculator,
) *BuilderImpl {
	return &BuilderImpl{
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		holidayRepo:    holidayRepo,
		summaryRepo:    summaryRepo,
		resolver:       resolver,
		hours:          hours,
		now:            time.Now,
	}
}

// Build lays out every calendar day of the month for one employee and stores
// the month's summary counters.
func (b *BuilderImpl) Build(ctx context.Context, employeeID string, year, month int) (report.AttendanceReport, error) {
	if month < 1 || month > 12 {
		return report.AttendanceReport{}, report.ErrInvalidReportMonth
	}

	emp, err := b.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return report.AttendanceReport{}, err
	}

	pol, err := policyService.EffectivePolicy(ctx, b.resolver, emp.SubUnitID)
	if err != nil {
		return report.AttendanceReport{}, fmt.Errorf("failed to resolve policy: %w", err)
	}
	shiftHours, err := policyService.ShiftHoursFor(emp, pol)
	if err != nil {
		return report.AttendanceReport{}, err
	}

	window := period.Month(year, time.Month(month))

	stored, err := b.attendanceRepo.ListByEmployeeAndRange(ctx, emp.ID, window.Start, window.End)
	if err != nil {
		return report.AttendanceReport{}, fmt.Errorf("failed to list attendance: %w", err)
	}
	byDate := make(map[string]attendance.AttendanceDay, len(stored))
	for _, d := range stored {
		byDate[d.Date.Format(time.DateOnly)] = d
	}

	holidays, err := b.holidayRepo.ListByRange(ctx, window.Start, window.End)
	if err != nil {
		return report.AttendanceReport{}, fmt.Errorf("failed to list holidays: %w", err)
	}
	holidayNames := make(map[string]string, len(holidays))
	for _, h := range holidays {
		holidayNames[h.Date.Format(time.DateOnly)] = h.Name
	}

	now := b.now()
	today := period.Date(now)
	joined := period.Date(emp.JoinDate)
	rules := attendanceService.NewOvertimeRules(pol, shiftHours, now)

	rep := report.AttendanceReport{
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName,
		Year:         year,
		Month:        month,
		Days:         make([]report.DayCell, 0, window.DayCount()),
	}
	summary := report.MonthlySummary{EmployeeID: emp.ID, Year: year, Month: month}
	var totals attendance.Hours

	for _, d := range window.Days() {
		key := d.Format(time.DateOnly)
		holidayName, isHoliday := holidayNames[key]
		cell := report.DayCell{
			Date:        key,
			Weekday:     d.Weekday().String(),
			IsWeekend:   pol.IsRestDay(d),
			IsHoliday:   isHoliday,
			HolidayName: holidayName,
		}
		if !cell.IsWeekend && !cell.IsHoliday {
			summary.WorkingDays++
		}

		day, ok := byDate[key]
		switch {
		case ok:
			day.IsWeekend = day.IsWeekend || cell.IsWeekend
			day.IsHoliday = day.IsHoliday || cell.IsHoliday
			opts := rules.OptionsFor(day)
			day, _, err = attendanceService.Recompute(b.hours, day, opts)
			if err != nil {
				return report.AttendanceReport{}, fmt.Errorf("failed to recompute %s: %w", key, err)
			}
			if err := day.Hours.Check(); err != nil {
				slog.Error("Attendance day buckets do not add up", "employee_id", emp.ID, "date", key, "hours", day.Hours)
				return report.AttendanceReport{}, fmt.Errorf("attendance day %s: %w", key, err)
			}
			fillFromDay(&cell, day, opts)
			totals.Add(day.Hours)
		case isHoliday:
			cell.Status = report.DayFestival
		case d.Before(today) && !d.Before(joined) && !cell.IsWeekend:
			cell.Status = report.DayAbsent
		default:
			cell.Status = report.DayBlank
		}

		countStatus(&summary, cell.Status)
		rep.Days = append(rep.Days, cell)
	}

	totals = totals.Rounded()
	summary.HoursWorked = totals.Total
	summary.OvertimeHours = totals.Overtime
	rep.OTTotals = totals

	saved, err := b.summaryRepo.Upsert(ctx, summary)
	if err != nil {
		return report.AttendanceReport{}, fmt.Errorf("failed to save monthly summary: %w", err)
	}
	rep.Summary = saved

	return rep, nil
}

func fillFromDay(cell *report.DayCell, day attendance.AttendanceDay, opts attendance.HoursOptions) {
	cell.Hours = day.Hours
	cell.LastOut = day.LastOutAt
	cell.Open = day.HasOpenPunch()
	for i := range day.Punches {
		if day.Punches[i].Type == attendance.PunchIn {
			ts := day.Punches[i].Timestamp
			cell.FirstIn = &ts
			break
		}
	}

	switch {
	case opts.ForceFestival:
		cell.Override = report.OverrideFestival
	case opts.ForceSunday:
		cell.Override = report.OverrideSunday
	}

	switch day.Status {
	case attendance.StatusAbsent:
		cell.Status = report.DayAbsent
	case attendance.StatusHalfDay:
		cell.Status = report.DayHalfDay
	case attendance.StatusLeave:
		cell.Status = report.DayLeave
	default:
		cell.Status = report.DayPresent
	}
}

func countStatus(s *report.MonthlySummary, status report.DayStatus) {
	switch status {
	case report.DayPresent:
		s.TotalPresent++
	case report.DayAbsent:
		s.TotalAbsent++
	case report.DayHalfDay:
		s.TotalHalfDay++
	case report.DayLeave:
		s.TotalLeave++
	case report.DayFestival:
		s.TotalFestival++
	}
}
