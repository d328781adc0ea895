package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/debounce"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	policyService "github.com/cmlabs-hris/hris-payroll-go/internal/service/policy"
)

const defaultDebounceWindow = 5 * time.Second

type AttendanceServiceImpl struct {
	attendanceRepo attendance.AttendanceRepository
	holidayRepo    attendance.HolidayRepository
	employeeRepo   employee.EmployeeRepository
	resolver       policy.Resolver
	calculator     attendance.HoursCalculator
	debounce       debounce.Store
	trigger        payroll.Trigger

	dayLocks       *lock.KeyedMutex
	debounceWindow time.Duration
	location       *time.Location
	now            func() time.Time
}

type Options struct {
	// DebounceWindow rejects a repeated punch type inside this window.
	DebounceWindow time.Duration
	// Location decides the attendance date of punches sent without an offset.
	Location *time.Location
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	holidayRepo attendance.HolidayRepository,
	employeeRepo employee.EmployeeRepository,
	resolver policy.Resolver,
	calculator attendance.HoursCalculator,
	debounceStore debounce.Store,
	trigger payroll.Trigger,
	opts Options,
) *AttendanceServiceImpl {
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = defaultDebounceWindow
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &AttendanceServiceImpl{
		attendanceRepo: attendanceRepo,
		holidayRepo:    holidayRepo,
		employeeRepo:   employeeRepo,
		resolver:       resolver,
		calculator:     calculator,
		debounce:       debounceStore,
		trigger:        trigger,
		dayLocks:       lock.NewKeyedMutex(),
		debounceWindow: opts.DebounceWindow,
		location:       opts.Location,
		now:            time.Now,
	}
}

// RecordPunch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordPunch(ctx context.Context, req attendance.PunchRequest) (attendance.AttendanceDayResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceDayResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceDayResponse{}, err
	}

	debounceKey := fmt.Sprintf("punch:%s:%s", emp.ID, req.Type)
	acquired, err := s.debounce.Acquire(ctx, debounceKey, s.debounceWindow)
	if err != nil {
		return attendance.AttendanceDayResponse{}, fmt.Errorf("failed to check duplicate punch: %w", err)
	}
	if !acquired {
		slog.Warn("Duplicate punch rejected", "employee_id", emp.ID, "type", req.Type)
		return attendance.AttendanceDayResponse{}, attendance.ErrDuplicatePunch
	}

	punchedAt := req.LocalTimestamp(s.location)
	punch := attendance.PunchEvent{Type: req.Type, Timestamp: punchedAt}
	date := period.Date(punchedAt)

	var day attendance.AttendanceDay
	if req.Type == attendance.PunchOut {
		day, err = s.closeOvernightShift(ctx, emp, punch)
		if err == nil {
			date = period.Date(day.Date)
		}
	}
	if req.Type == attendance.PunchIn || errors.Is(err, errNoOvernightShift) {
		day, err = s.withDay(ctx, emp, date, func(day *attendance.AttendanceDay, pol policy.SalaryPolicy, shiftHours float64) error {
			return s.addPunch(day, punch, pol, shiftHours)
		})
	}
	if err != nil {
		if relErr := s.debounce.Release(context.WithoutCancel(ctx), debounceKey); relErr != nil {
			slog.Warn("Failed to release punch debounce key", "key", debounceKey, "error", relErr)
		}
		return attendance.AttendanceDayResponse{}, err
	}

	slog.Info("Punch recorded",
		"employee_id", emp.ID,
		"type", req.Type,
		"date", date.Format(time.DateOnly),
		"total_hours", day.Hours.Total,
	)
	s.enqueueMonth(date)

	return attendance.NewAttendanceDayResponse(day), nil
}

// maxOvernightShift bounds how far an OUT may trail the previous day's open IN.
const maxOvernightShift = 24 * time.Hour

var errNoOvernightShift = errors.New("no open shift on the previous day")

// closeOvernightShift files an OUT under the previous day when that day ends
// with an open IN and the punch's own day has no IN before it.
func (s *AttendanceServiceImpl) closeOvernightShift(ctx context.Context, emp employee.Employee, punch attendance.PunchEvent) (attendance.AttendanceDay, error) {
	date := period.Date(punch.Timestamp)

	today, err := s.attendanceRepo.GetDay(ctx, emp.ID, date)
	switch {
	case err == nil:
		for _, p := range today.Punches {
			if p.Type == attendance.PunchIn && p.Timestamp.Before(punch.Timestamp) {
				return attendance.AttendanceDay{}, errNoOvernightShift
			}
		}
	case !errors.Is(err, attendance.ErrAttendanceDayNotFound):
		return attendance.AttendanceDay{}, fmt.Errorf("failed to get attendance day: %w", err)
	}

	return s.withDay(ctx, emp, date.AddDate(0, 0, -1), func(day *attendance.AttendanceDay, pol policy.SalaryPolicy, shiftHours float64) error {
		if !day.HasOpenPunch() {
			return errNoOvernightShift
		}
		openedAt := day.Punches[len(day.Punches)-1].Timestamp
		if !openedAt.Before(punch.Timestamp) || punch.Timestamp.Sub(openedAt) > maxOvernightShift {
			return errNoOvernightShift
		}
		return s.addPunch(day, punch, pol, shiftHours)
	})
}

func (s *AttendanceServiceImpl) addPunch(day *attendance.AttendanceDay, punch attendance.PunchEvent, pol policy.SalaryPolicy, shiftHours float64) error {
	day.Punches = append(day.Punches, punch)
	sort.SliceStable(day.Punches, func(i, j int) bool {
		return day.Punches[i].Timestamp.Before(day.Punches[j].Timestamp)
	})
	day.Status = attendance.StatusPresent
	return s.recompute(day, pol, shiftHours)
}

// RecordManualEntry implements attendance.AttendanceService. Existing punches
// of the day are replaced by the entered totals.
func (s *AttendanceServiceImpl) RecordManualEntry(ctx context.Context, req attendance.ManualEntryRequest) (attendance.AttendanceDayResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceDayResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID)
	if err != nil {
		return attendance.AttendanceDayResponse{}, err
	}
	date, _ := validator.IsValidDate(req.Date)

	day, err := s.withDay(ctx, emp, date, func(day *attendance.AttendanceDay, pol policy.SalaryPolicy, shiftHours float64) error {
		day.Status = req.Status
		day.Punches = nil
		day.LastInAt, day.LastOutAt = nil, nil
		day.Hours = manualHours(req, day, pol, shiftHours)
		return nil
	})
	if err != nil {
		return attendance.AttendanceDayResponse{}, err
	}

	slog.Info("Manual attendance recorded", "employee_id", emp.ID, "date", req.Date, "status", req.Status)
	s.enqueueMonth(date)

	return attendance.NewAttendanceDayResponse(day), nil
}

// withDay serialises the read-modify-write of one employee's day.
func (s *AttendanceServiceImpl) withDay(
	ctx context.Context,
	emp employee.Employee,
	date time.Time,
	mutate func(day *attendance.AttendanceDay, pol policy.SalaryPolicy, shiftHours float64) error,
) (attendance.AttendanceDay, error) {
	unlock := s.dayLocks.Lock(emp.ID + "|" + date.Format(time.DateOnly))
	defer unlock()

	pol, err := policyService.EffectivePolicy(ctx, s.resolver, emp.SubUnitID)
	if err != nil {
		return attendance.AttendanceDay{}, err
	}
	shiftHours, err := policyService.ShiftHoursFor(emp, pol)
	if err != nil {
		return attendance.AttendanceDay{}, err
	}

	day, err := s.attendanceRepo.GetDay(ctx, emp.ID, date)
	if err != nil {
		if !errors.Is(err, attendance.ErrAttendanceDayNotFound) {
			return attendance.AttendanceDay{}, fmt.Errorf("failed to get attendance day: %w", err)
		}
		holidays, err := s.holidayRepo.ListByRange(ctx, date, date)
		if err != nil {
			return attendance.AttendanceDay{}, fmt.Errorf("failed to list holidays: %w", err)
		}
		day = attendance.AttendanceDay{
			EmployeeID: emp.ID,
			Date:       date,
			IsWeekend:  pol.IsRestDay(date),
			IsHoliday:  len(holidays) > 0,
		}
	}

	if err := mutate(&day, pol, shiftHours); err != nil {
		return attendance.AttendanceDay{}, err
	}
	if err := day.Hours.Check(); err != nil {
		slog.Error("Attendance day buckets do not add up", "employee_id", emp.ID, "date", date.Format(time.DateOnly), "hours", day.Hours)
		return attendance.AttendanceDay{}, err
	}

	saved, err := s.attendanceRepo.Upsert(ctx, day)
	if err != nil {
		return attendance.AttendanceDay{}, fmt.Errorf("failed to save attendance day: %w", err)
	}
	return saved, nil
}

// recompute stores closed pairs only; readers recount an open IN up to now.
func (s *AttendanceServiceImpl) recompute(day *attendance.AttendanceDay, pol policy.SalaryPolicy, shiftHours float64) error {
	res, err := s.calculator.Calculate(day.Punches, attendance.HoursOptions{
		ShiftHours:      shiftHours,
		Now:             s.now(),
		IsWeekend:       day.IsWeekend,
		IsHoliday:       day.IsHoliday,
		AllowSundayOT:   pol.AllowSundayOT,
		AllowFestivalOT: pol.AllowFestivalOT,
		NightStartHour:  pol.NightStartHour,
	})
	if err != nil {
		return err
	}
	day.Hours = res.Hours
	day.LastInAt = res.LastInTime
	day.LastOutAt = res.LastOutTime
	return nil
}

func manualHours(req attendance.ManualEntryRequest, day *attendance.AttendanceDay, pol policy.SalaryPolicy, shiftHours float64) attendance.Hours {
	if req.Status == attendance.StatusAbsent || req.Status == attendance.StatusLeave {
		return attendance.Hours{}
	}

	total := attendance.Round2(req.TotalHours)
	h := attendance.Hours{
		Total:   total,
		Regular: attendance.Round2(min(total, shiftHours)),
	}
	h.Overtime = attendance.Round2(total - h.Regular)

	switch {
	case h.Overtime <= 0:
		h.Overtime = 0
	case day.IsHoliday && pol.AllowFestivalOT:
		h.AssignAll(attendance.BucketFestival)
	case day.IsWeekend && pol.AllowSundayOT:
		h.AssignAll(attendance.BucketSunday)
	default:
		h.AssignAll(attendance.BucketDay)
	}
	return h
}

// ListDays implements attendance.AttendanceService. Days with an open IN are
// counted up to now.
func (s *AttendanceServiceImpl) ListDays(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceDayResponse, error) {
	window, err := period.New(from, to)
	if err != nil {
		return nil, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	pol, err := policyService.EffectivePolicy(ctx, s.resolver, emp.SubUnitID)
	if err != nil {
		return nil, err
	}
	shiftHours, err := policyService.ShiftHoursFor(emp, pol)
	if err != nil {
		return nil, err
	}

	days, err := s.attendanceRepo.ListByEmployeeAndRange(ctx, emp.ID, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	holidays, err := s.holidayRepo.ListByRange(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	isHoliday := make(map[time.Time]bool, len(holidays))
	for _, h := range holidays {
		isHoliday[period.Date(h.Date)] = true
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })

	rules := NewOvertimeRules(pol, shiftHours, s.now())
	responses := make([]attendance.AttendanceDayResponse, 0, len(days))
	for _, day := range days {
		day.IsWeekend = day.IsWeekend || pol.IsRestDay(day.Date)
		day.IsHoliday = day.IsHoliday || isHoliday[period.Date(day.Date)]
		day, _, err = Recompute(s.calculator, day, rules.OptionsFor(day))
		if err != nil {
			return nil, err
		}
		responses = append(responses, attendance.NewAttendanceDayResponse(day))
	}
	return responses, nil
}

func (s *AttendanceServiceImpl) ListHolidays(ctx context.Context, from, to time.Time) ([]attendance.HolidayResponse, error) {
	window, err := period.New(from, to)
	if err != nil {
		return nil, err
	}
	holidays, err := s.holidayRepo.ListByRange(ctx, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	responses := make([]attendance.HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		responses = append(responses, toHolidayResponse(h))
	}
	return responses, nil
}

func (s *AttendanceServiceImpl) CreateHoliday(ctx context.Context, req attendance.CreateHolidayRequest) (attendance.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.HolidayResponse{}, err
	}
	date, _ := validator.IsValidDate(req.Date)

	created, err := s.holidayRepo.Create(ctx, attendance.Holiday{Date: date, Name: req.Name})
	if err != nil {
		return attendance.HolidayResponse{}, err
	}

	s.enqueueMonth(date)
	return toHolidayResponse(created), nil
}

func (s *AttendanceServiceImpl) DeleteHoliday(ctx context.Context, id string) error {
	deleted, err := s.holidayRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	s.enqueueMonth(deleted.Date)
	return nil
}

func (s *AttendanceServiceImpl) enqueueMonth(date time.Time) {
	monthKey := period.MonthKeyOf(date)
	if !s.trigger.Enqueue(monthKey) {
		slog.Warn("Payroll recalculation not queued", "month_key", monthKey)
	}
}

func toHolidayResponse(h attendance.Holiday) attendance.HolidayResponse {
	return attendance.HolidayResponse{
		ID:   h.ID,
		Date: h.Date.Format(time.DateOnly),
		Name: h.Name,
	}
}
