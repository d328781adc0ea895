package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/debounce"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDayRepo struct {
	mu         sync.Mutex
	days       map[string]attendance.AttendanceDay
	failUpsert error
}

func newFakeDayRepo() *fakeDayRepo {
	return &fakeDayRepo{days: make(map[string]attendance.AttendanceDay)}
}

func dayKey(employeeID string, date time.Time) string {
	return employeeID + "|" + date.Format(time.DateOnly)
}

func (r *fakeDayRepo) GetDay(_ context.Context, employeeID string, date time.Time) (attendance.AttendanceDay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	day, ok := r.days[dayKey(employeeID, date)]
	if !ok {
		return attendance.AttendanceDay{}, attendance.ErrAttendanceDayNotFound
	}
	return day, nil
}

func (r *fakeDayRepo) ListByEmployeeAndRange(_ context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceDay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []attendance.AttendanceDay
	for _, day := range r.days {
		if day.EmployeeID == employeeID && !day.Date.Before(from) && !day.Date.After(to) {
			out = append(out, day)
		}
	}
	return out, nil
}

func (r *fakeDayRepo) Upsert(_ context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpsert != nil {
		return attendance.AttendanceDay{}, r.failUpsert
	}
	if day.ID == "" {
		day.ID = dayKey(day.EmployeeID, day.Date)
	}
	r.days[dayKey(day.EmployeeID, day.Date)] = day
	return day, nil
}

type fakeHolidays struct {
	holidays []attendance.Holiday
}

func (r *fakeHolidays) ListByRange(_ context.Context, from, to time.Time) ([]attendance.Holiday, error) {
	var out []attendance.Holiday
	for _, h := range r.holidays {
		if !h.Date.Before(from) && !h.Date.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (r *fakeHolidays) Create(_ context.Context, h attendance.Holiday) (attendance.Holiday, error) {
	for _, existing := range r.holidays {
		if existing.Date.Equal(h.Date) {
			return attendance.Holiday{}, attendance.ErrHolidayExists
		}
	}
	h.ID = h.Date.Format(time.DateOnly)
	r.holidays = append(r.holidays, h)
	return h, nil
}

func (r *fakeHolidays) Delete(_ context.Context, id string) (attendance.Holiday, error) {
	for i, h := range r.holidays {
		if h.ID == id {
			r.holidays = append(r.holidays[:i], r.holidays[i+1:]...)
			return h, nil
		}
	}
	return attendance.Holiday{}, attendance.ErrHolidayNotFound
}

type fakeEmployees map[string]employee.Employee

func (f fakeEmployees) GetByID(_ context.Context, id string) (employee.Employee, error) {
	emp, ok := f[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return emp, nil
}

func (f fakeEmployees) ListActive(_ context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, emp := range f {
		out = append(out, emp)
	}
	return out, nil
}

type defaultResolver struct{}

func (defaultResolver) Resolve(context.Context, string) (*policy.Resolved, error) { return nil, nil }
func (defaultResolver) Invalidate(string)                                          {}
func (defaultResolver) InvalidateAll()                                             {}

type monthRecorder struct {
	mu   sync.Mutex
	keys []string
}

func (m *monthRecorder) Enqueue(monthKey string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, monthKey)
	return true
}

type brokenStore struct{}

func (brokenStore) Acquire(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis: connection refused")
}
func (brokenStore) Release(context.Context, string) error { return nil }

type serviceFixture struct {
	svc      *AttendanceServiceImpl
	days     *fakeDayRepo
	holidays *fakeHolidays
	trigger  *monthRecorder
}

func newServiceFixture(t *testing.T, store debounce.Store) serviceFixture {
	t.Helper()
	if store == nil {
		store = debounce.NewMemoryStore(0)
	}
	f := serviceFixture{
		days:     newFakeDayRepo(),
		holidays: &fakeHolidays{},
		trigger:  &monthRecorder{},
	}
	employees := fakeEmployees{
		"emp-1": {
			ID:               "emp-1",
			EmployeeCode:     "E001",
			Salary:           decimal.NewFromInt(26000),
			SalaryType:       employee.SalaryTypeMonthly,
			EmploymentStatus: employee.EmploymentStatusActive,
			JoinDate:         period.NewDate(2023, 1, 1),
		},
	}
	f.svc = NewAttendanceService(f.days, f.holidays, employees, defaultResolver{}, NewHoursCalculator(), store, f.trigger, Options{})
	f.svc.now = func() time.Time { return time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC) }
	return f
}

func punchAt(typ attendance.PunchType, ts time.Time) attendance.PunchRequest {
	return attendance.PunchRequest{EmployeeID: "emp-1", Type: typ, Timestamp: ts}
}

func TestRecordPunch_InThenOutComputesDay(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	resp, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.True(t, resp.Open)
	assert.Equal(t, 0.0, resp.Hours.Total)

	resp, err = f.svc.RecordPunch(ctx, punchAt(attendance.PunchOut, time.Date(2024, 3, 4, 17, 30, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.Equal(t, "2024-03-04", resp.Date)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
	assert.False(t, resp.Open)
	assert.False(t, resp.IsWeekend)
	assert.Equal(t, 8.5, resp.Hours.Total)
	assert.Equal(t, 0.5, resp.Hours.DayOT)
	require.Len(t, resp.Punches, 2)
	assert.Equal(t, []string{"2024-3", "2024-3"}, f.trigger.keys)
}

func TestRecordPunch_OvernightOutClosesPreviousDay(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 3, 2, 22, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	resp, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchOut, time.Date(2024, 3, 3, 6, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.Equal(t, "2024-03-02", resp.Date)
	assert.False(t, resp.Open)
	assert.Equal(t, 8.0, resp.Hours.Total)
	require.Len(t, resp.Punches, 2)

	_, err = f.days.GetDay(ctx, "emp-1", period.NewDate(2024, 3, 3))
	assert.ErrorIs(t, err, attendance.ErrAttendanceDayNotFound)

	days, err := f.svc.ListDays(ctx, "emp-1", period.NewDate(2024, 3, 1), period.NewDate(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2024-03-02", days[0].Date)
	assert.False(t, days[0].Open)
	assert.Equal(t, 8.0, days[0].Hours.Total)
	assert.Equal(t, 0.0, days[0].Hours.Overtime)
}

func TestRecordPunch_OvernightOutAcrossMonthQueuesInMonth(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 2, 29, 22, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	resp, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchOut, time.Date(2024, 3, 1, 7, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.Equal(t, "2024-02-29", resp.Date)
	assert.Equal(t, 9.0, resp.Hours.Total)
	assert.Equal(t, 1.0, resp.Hours.Overtime)
	assert.Equal(t, []string{"2024-2", "2024-2"}, f.trigger.keys)
}

func TestRecordPunch_OutStaysOnOwnDay(t *testing.T) {
	ctx := context.Background()

	t.Run("previous day already closed", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		f.svc.debounceWindow = time.Nanosecond
		_, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
		_, err = f.svc.RecordPunch(ctx, punchAt(attendance.PunchOut, time.Date(2024, 3, 3, 17, 0, 0, 0, time.UTC)))
		require.NoError(t, err)

		resp, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchOut, time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
		assert.Equal(t, "2024-03-04", resp.Date)
		assert.Equal(t, 0.0, resp.Hours.Total)
	})

	t.Run("own day has an earlier IN", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		_, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 3, 2, 22, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
		f.svc.debounceWindow = time.Nanosecond
		_, err = f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 3, 3, 5, 0, 0, 0, time.UTC)))
		require.NoError(t, err)

		resp, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchOut, time.Date(2024, 3, 3, 6, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
		assert.Equal(t, "2024-03-03", resp.Date)
		assert.Equal(t, 1.0, resp.Hours.Total)
	})

	t.Run("open IN older than a day", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		_, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 3, 2, 1, 0, 0, 0, time.UTC)))
		require.NoError(t, err)

		resp, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchOut, time.Date(2024, 3, 3, 6, 0, 0, 0, time.UTC)))
		require.NoError(t, err)
		assert.Equal(t, "2024-03-03", resp.Date)
	})
}

func TestRecordPunch_DuplicateWithinWindowRejected(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()
	ts := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	_, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, ts))
	require.NoError(t, err)

	_, err = f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, ts.Add(2*time.Second)))
	assert.ErrorIs(t, err, attendance.ErrDuplicatePunch)

	day, err := f.days.GetDay(ctx, "emp-1", period.NewDate(2024, 3, 4))
	require.NoError(t, err)
	assert.Len(t, day.Punches, 1)
}

func TestRecordPunch_ClientOffsetDecidesDate(t *testing.T) {
	f := newServiceFixture(t, nil)
	offset := 330
	req := punchAt(attendance.PunchIn, time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC))
	req.TZOffsetMinutes = &offset

	resp, err := f.svc.RecordPunch(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", resp.Date)
	require.Len(t, resp.Punches, 1)
	assert.Equal(t, 1, resp.Punches[0].Timestamp.Hour())
	assert.Equal(t, 30, resp.Punches[0].Timestamp.Minute())
}

func TestRecordPunch_NewDayTakesRestDayAndHolidayFlags(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.holidays.holidays = []attendance.Holiday{{ID: "h1", Date: period.NewDate(2024, 3, 25), Name: "Holi"}}
	ctx := context.Background()

	sunday, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.True(t, sunday.IsWeekend)
	assert.False(t, sunday.IsHoliday)

	holiday, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 3, 25, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.False(t, holiday.IsWeekend)
	assert.True(t, holiday.IsHoliday)
}

func TestRecordPunch_HolidayOvertimeIsFestival(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.holidays.holidays = []attendance.Holiday{{ID: "h1", Date: period.NewDate(2024, 3, 25), Name: "Holi"}}
	ctx := context.Background()

	_, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 3, 25, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	resp, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchOut, time.Date(2024, 3, 25, 19, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.Equal(t, 10.0, resp.Hours.Total)
	assert.Equal(t, 2.0, resp.Hours.FestivalOT)
	assert.Equal(t, 0.0, resp.Hours.DayOT)
}

func TestRecordPunch_Errors(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	t.Run("validation", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		_, err := f.svc.RecordPunch(ctx, attendance.PunchRequest{Type: "BREAK"})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Len(t, verrs, 3)
	})

	t.Run("unknown employee", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		req := punchAt(attendance.PunchIn, ts)
		req.EmployeeID = "ghost"
		_, err := f.svc.RecordPunch(ctx, req)
		assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	})

	t.Run("debounce store down fails closed", func(t *testing.T) {
		f := newServiceFixture(t, brokenStore{})
		_, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, ts))
		require.Error(t, err)
		assert.Empty(t, f.days.days)
		assert.Empty(t, f.trigger.keys)
	})

	t.Run("failed save releases debounce key", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		f.days.failUpsert = errors.New("connection reset")

		_, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, ts))
		require.Error(t, err)
		assert.Empty(t, f.trigger.keys)

		f.days.failUpsert = nil
		_, err = f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, ts))
		assert.NoError(t, err)
	})
}

func TestRecordPunch_ConcurrentPunchesAllKept(t *testing.T) {
	f := newServiceFixture(t, nil)
	f.svc.debounceWindow = time.Nanosecond
	ctx := context.Background()
	base := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			typ := attendance.PunchIn
			if i%2 == 1 {
				typ = attendance.PunchOut
			}
			_, _ = f.svc.RecordPunch(ctx, punchAt(typ, base.Add(time.Duration(i)*time.Hour)))
		}()
	}
	wg.Wait()

	day, err := f.days.GetDay(ctx, "emp-1", period.NewDate(2024, 3, 4))
	require.NoError(t, err)
	for i := 1; i < len(day.Punches); i++ {
		assert.False(t, day.Punches[i].Timestamp.Before(day.Punches[i-1].Timestamp))
	}
	assert.NoError(t, day.Hours.Check())
}

func TestRecordManualEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("hours on a holiday go to festival OT", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		f.holidays.holidays = []attendance.Holiday{{ID: "h1", Date: period.NewDate(2024, 3, 25), Name: "Holi"}}

		resp, err := f.svc.RecordManualEntry(ctx, attendance.ManualEntryRequest{
			EmployeeID: "emp-1", Date: "2024-03-25", Status: attendance.StatusPresent, TotalHours: 10,
		})

		require.NoError(t, err)
		assert.Equal(t, 8.0, resp.Hours.Regular)
		assert.Equal(t, 2.0, resp.Hours.FestivalOT)
		assert.Equal(t, []string{"2024-3"}, f.trigger.keys)
	})

	t.Run("weekday hours go to day OT", func(t *testing.T) {
		f := newServiceFixture(t, nil)

		resp, err := f.svc.RecordManualEntry(ctx, attendance.ManualEntryRequest{
			EmployeeID: "emp-1", Date: "2024-03-05", Status: attendance.StatusHalfDay, TotalHours: 4,
		})

		require.NoError(t, err)
		assert.Equal(t, 4.0, resp.Hours.Regular)
		assert.Equal(t, 0.0, resp.Hours.Overtime)
		assert.Equal(t, attendance.StatusHalfDay, resp.Status)
	})

	t.Run("leave clears punches and hours", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		_, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)))
		require.NoError(t, err)

		resp, err := f.svc.RecordManualEntry(ctx, attendance.ManualEntryRequest{
			EmployeeID: "emp-1", Date: "2024-03-04", Status: attendance.StatusLeave, TotalHours: 8,
		})

		require.NoError(t, err)
		assert.Equal(t, attendance.StatusLeave, resp.Status)
		assert.Empty(t, resp.Punches)
		assert.Equal(t, attendance.Hours{}, resp.Hours)
		assert.False(t, resp.Open)
	})

	t.Run("invalid request", func(t *testing.T) {
		f := newServiceFixture(t, nil)
		_, err := f.svc.RecordManualEntry(ctx, attendance.ManualEntryRequest{EmployeeID: "emp-1", Date: "25-03-2024", Status: "sick"})
		var verrs validator.ValidationErrors
		assert.ErrorAs(t, err, &verrs)
	})
}

func TestListDays_OpenPunchCountedToNow(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.RecordPunch(ctx, punchAt(attendance.PunchIn, time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	days, err := f.svc.ListDays(ctx, "emp-1", period.NewDate(2024, 3, 1), period.NewDate(2024, 3, 31))

	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.True(t, days[0].Open)
	assert.Equal(t, 3.0, days[0].Hours.Total)
}

func TestListDays_SortedAndPeriodChecked(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()
	for _, d := range []string{"2024-03-06", "2024-03-04", "2024-03-05"} {
		_, err := f.svc.RecordManualEntry(ctx, attendance.ManualEntryRequest{
			EmployeeID: "emp-1", Date: d, Status: attendance.StatusPresent, TotalHours: 8,
		})
		require.NoError(t, err)
	}

	days, err := f.svc.ListDays(ctx, "emp-1", period.NewDate(2024, 3, 1), period.NewDate(2024, 3, 31))
	require.NoError(t, err)
	require.Len(t, days, 3)
	assert.Equal(t, "2024-03-04", days[0].Date)
	assert.Equal(t, "2024-03-06", days[2].Date)

	_, err = f.svc.ListDays(ctx, "emp-1", period.NewDate(2024, 3, 31), period.NewDate(2024, 3, 1))
	assert.ErrorIs(t, err, period.ErrInvalidPeriod)
}

func TestHolidays_CreateAndDeleteQueueMonth(t *testing.T) {
	f := newServiceFixture(t, nil)
	ctx := context.Background()

	created, err := f.svc.CreateHoliday(ctx, attendance.CreateHolidayRequest{Date: "2024-08-15", Name: "Independence Day"})
	require.NoError(t, err)
	assert.Equal(t, "2024-08-15", created.Date)

	_, err = f.svc.CreateHoliday(ctx, attendance.CreateHolidayRequest{Date: "2024-08-15", Name: "Again"})
	assert.ErrorIs(t, err, attendance.ErrHolidayExists)

	listed, err := f.svc.ListHolidays(ctx, period.NewDate(2024, 8, 1), period.NewDate(2024, 8, 31))
	require.NoError(t, err)
	require.Len(t, listed, 1)

	require.NoError(t, f.svc.DeleteHoliday(ctx, created.ID))
	assert.Equal(t, []string{"2024-8", "2024-8"}, f.trigger.keys)
}
