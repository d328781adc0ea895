package payroll

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/charge"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
)

type fakeAttendanceRepo struct {
	days map[string][]attendance.AttendanceDay
}

func (r *fakeAttendanceRepo) GetDay(ctx context.Context, employeeID string, date time.Time) (attendance.AttendanceDay, error) {
	for _, d := range r.days[employeeID] {
		if d.Date.Equal(date) {
			return d, nil
		}
	}
	return attendance.AttendanceDay{}, attendance.ErrAttendanceDayNotFound
}

func (r *fakeAttendanceRepo) ListByEmployeeAndRange(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceDay, error) {
	var out []attendance.AttendanceDay
	for _, d := range r.days[employeeID] {
		if !d.Date.Before(from) && !d.Date.After(to) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeAttendanceRepo) Upsert(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	r.days[day.EmployeeID] = append(r.days[day.EmployeeID], day)
	return day, nil
}

type fakeHolidayRepo struct {
	holidays []attendance.Holiday
}

func (r *fakeHolidayRepo) ListByRange(ctx context.Context, from, to time.Time) ([]attendance.Holiday, error) {
	var out []attendance.Holiday
	for _, h := range r.holidays {
		if !h.Date.Before(from) && !h.Date.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeHolidayRepo) Create(ctx context.Context, holiday attendance.Holiday) (attendance.Holiday, error) {
	r.holidays = append(r.holidays, holiday)
	return holiday, nil
}

func (r *fakeHolidayRepo) Delete(ctx context.Context, id string) (attendance.Holiday, error) {
	return attendance.Holiday{}, nil
}

type fakeLoanRepo struct {
	loans []loan.Loan
}

func (r *fakeLoanRepo) GetByID(ctx context.Context, id string) (loan.Loan, error) {
	for _, l := range r.loans {
		if l.ID == id {
			return l, nil
		}
	}
	return loan.Loan{}, loan.ErrLoanNotFound
}

func (r *fakeLoanRepo) ListByEmployee(ctx context.Context, employeeID string, activeOnly bool) ([]loan.Loan, error) {
	var out []loan.Loan
	for _, l := range r.loans {
		if l.EmployeeID == employeeID && (!activeOnly || l.IsActive) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeLoanRepo) Create(ctx context.Context, newLoan loan.Loan) (loan.Loan, error) {
	r.loans = append(r.loans, newLoan)
	return newLoan, nil
}

func (r *fakeLoanRepo) Deactivate(ctx context.Context, id string) (loan.Loan, error) {
	for i := range r.loans {
		if r.loans[i].ID == id {
			r.loans[i].IsActive = false
			return r.loans[i], nil
		}
	}
	return loan.Loan{}, loan.ErrLoanNotFound
}

type fakeResolver struct {
	policies map[string]policy.SalaryPolicy
}

func (r *fakeResolver) Resolve(ctx context.Context, subUnitID string) (*policy.Resolved, error) {
	p, ok := r.policies[subUnitID]
	if !ok {
		return nil, nil
	}
	return &policy.Resolved{SubUnitID: subUnitID, Policy: p, Source: policy.SourceOverride}, nil
}

func (r *fakeResolver) Invalidate(subUnitID string) {}
func (r *fakeResolver) InvalidateAll()              {}

type fakeRates map[employee.DeductionFlag]charge.ChargeRate

func (f fakeRates) Rates(ctx context.Context) (map[employee.DeductionFlag]charge.ChargeRate, error) {
	return f, nil
}

type fakeEmployeeRepo struct {
	mu        sync.Mutex
	employees []employee.Employee
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (r *fakeEmployeeRepo) ListActive(ctx context.Context) ([]employee.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]employee.Employee, len(r.employees))
	copy(out, r.employees)
	return out, nil
}

type fakePayrollRepo struct {
	mu      sync.Mutex
	records map[string]payroll.MonthlyRecord
	upserts int
}

func newFakePayrollRepo() *fakePayrollRepo {
	return &fakePayrollRepo{records: make(map[string]payroll.MonthlyRecord)}
}

func (r *fakePayrollRepo) GetByMonthKey(ctx context.Context, monthKey string) (payroll.MonthlyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[monthKey]
	if !ok {
		return payroll.MonthlyRecord{}, payroll.ErrMonthlyPayrollNotFound
	}
	return cloneRecord(rec), nil
}

func (r *fakePayrollRepo) GetByMonthKeyForUpdate(ctx context.Context, monthKey string) (payroll.MonthlyRecord, error) {
	return r.GetByMonthKey(ctx, monthKey)
}

func (r *fakePayrollRepo) Exists(ctx context.Context, monthKey string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[monthKey]
	return ok, nil
}

func (r *fakePayrollRepo) Upsert(ctx context.Context, record payroll.MonthlyRecord) (payroll.MonthlyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if record.ID == "" {
		record.ID = "rec-" + record.MonthKey
	}
	r.records[record.MonthKey] = cloneRecord(record)
	return record, nil
}

func cloneRecord(rec payroll.MonthlyRecord) payroll.MonthlyRecord {
	items := make([]payroll.LineItem, len(rec.Items))
	copy(items, rec.Items)
	rec.Items = items
	return rec
}

type passthroughTransactor struct{}

func (passthroughTransactor) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func punches(day time.Time, pairs ...[2]string) []attendance.PunchEvent {
	var out []attendance.PunchEvent
	for _, p := range pairs {
		for i, hm := range p {
			if hm == "" {
				continue
			}
			t, _ := time.Parse("15:04", hm)
			typ := attendance.PunchIn
			if i == 1 {
				typ = attendance.PunchOut
			}
			out = append(out, attendance.PunchEvent{
				Type:      typ,
				Timestamp: time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}
