package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/charge"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/policy"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/report"
	"github.com/cmlabs-hris/hris-payroll-go/internal/handler/http/response"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret = "test-secret-key-for-jwt"
	testEmployeeID    = "0190a6f2-6b2c-7d4e-8f00-000000000001"
)

// Each fake embeds its service interface; calling a method that is not
// overridden panics, which flags an unexpected route hit.
type fakeAttendanceService struct {
	attendance.AttendanceService
	punch    func(req attendance.PunchRequest) (attendance.AttendanceDayResponse, error)
	listDays func(employeeID string, from, to time.Time) ([]attendance.AttendanceDayResponse, error)
}

func (f *fakeAttendanceService) RecordPunch(_ context.Context, req attendance.PunchRequest) (attendance.AttendanceDayResponse, error) {
	return f.punch(req)
}

func (f *fakeAttendanceService) ListDays(_ context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceDayResponse, error) {
	return f.listDays(employeeID, from, to)
}

type fakePayrollService struct {
	payroll.PayrollService
	getMonth    func(monthKey string) (payroll.PayrollView, error)
	recalculate func(monthKey string) (payroll.PayrollView, error)
	request     func(monthKey string) (payroll.RecalculationResponse, error)
	updateItem  func(req payroll.UpdateItemStatusRequest) (payroll.LineItem, error)
}

func (f *fakePayrollService) GetMonth(_ context.Context, monthKey string) (payroll.PayrollView, error) {
	return f.getMonth(monthKey)
}

func (f *fakePayrollService) RecalculateNow(_ context.Context, monthKey string) (payroll.PayrollView, error) {
	return f.recalculate(monthKey)
}

func (f *fakePayrollService) RequestRecalculation(_ context.Context, monthKey string) (payroll.RecalculationResponse, error) {
	return f.request(monthKey)
}

func (f *fakePayrollService) UpdateItemStatus(_ context.Context, req payroll.UpdateItemStatusRequest) (payroll.LineItem, error) {
	return f.updateItem(req)
}

type fakePolicyService struct {
	policy.PolicyService
	upserted *policy.UpsertPolicyRequest
}

func (f *fakePolicyService) UpsertOverride(_ context.Context, req policy.UpsertPolicyRequest) (policy.PolicyOverrideResponse, error) {
	f.upserted = &req
	return policy.PolicyOverrideResponse{}, nil
}

type fakeChargeService struct {
	charge.ChargeService
	deleted string
}

func (f *fakeChargeService) Delete(_ context.Context, code string) error {
	f.deleted = code
	if code == "MISSING" {
		return charge.ErrChargeRateNotFound
	}
	return nil
}

type fakeLoanService struct{ loan.LoanService }
type fakeReportService struct{ report.ReportService }

type routerFixture struct {
	router     http.Handler
	jwt        *jwt.JWTService
	attendance *fakeAttendanceService
	payroll    *fakePayrollService
	policy     *fakePolicyService
	charge     *fakeChargeService
	hub        *sse.Hub
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()

	f := &routerFixture{
		jwt:        jwt.NewJWTService(handlerTestSecret),
		attendance: &fakeAttendanceService{},
		payroll:    &fakePayrollService{},
		policy:     &fakePolicyService{},
		charge:     &fakeChargeService{},
		hub:        sse.NewHub(),
	}
	t.Cleanup(f.hub.Close)

	f.router = NewRouter(f.jwt, Handlers{
		Attendance: NewAttendanceHandler(f.attendance),
		Payroll:    NewPayrollHandler(f.payroll),
		Policy:     NewPolicyHandler(f.policy),
		Charge:     NewChargeHandler(f.charge),
		Loan:       NewLoanHandler(&fakeLoanService{}),
		Report:     NewReportHandler(&fakeReportService{}),
		Events:     NewEventsHandler(f.hub, f.jwt),
	}, RouterOptions{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	return f
}

func (f *routerFixture) token(t *testing.T, role jwt.Role) string {
	t.Helper()
	token, _, err := f.jwt.GenerateAccessToken("user-1", role, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *routerFixture) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var resp response.Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestRouter_RequiresToken(t *testing.T) {
	f := newRouterFixture(t)

	w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/months/2024-3", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp.Success)
}

func TestAttendanceHandler_RecordPunch(t *testing.T) {
	f := newRouterFixture(t)
	operator := f.token(t, jwt.RoleOperator)

	t.Run("created", func(t *testing.T) {
		var got attendance.PunchRequest
		f.attendance.punch = func(req attendance.PunchRequest) (attendance.AttendanceDayResponse, error) {
			got = req
			return attendance.AttendanceDayResponse{EmployeeID: req.EmployeeID, Date: "2024-03-04"}, nil
		}

		w, resp := f.do(t, http.MethodPost, "/api/v1/attendance/punch", operator, map[string]interface{}{
			"employee_id": testEmployeeID,
			"type":        "IN",
			"timestamp":   "2024-03-04T09:00:00+05:30",
		})

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, testEmployeeID, got.EmployeeID)
		assert.Equal(t, attendance.PunchType("IN"), got.Type)
	})

	t.Run("duplicate punch conflicts", func(t *testing.T) {
		f.attendance.punch = func(attendance.PunchRequest) (attendance.AttendanceDayResponse, error) {
			return attendance.AttendanceDayResponse{}, attendance.ErrDuplicatePunch
		}

		w, resp := f.do(t, http.MethodPost, "/api/v1/attendance/punch", operator, map[string]interface{}{
			"employee_id": testEmployeeID,
			"type":        "IN",
			"timestamp":   "2024-03-04T09:00:00Z",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		require.NotNil(t, resp.Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/attendance/punch", strings.NewReader("{"))
		req.Header.Set("Authorization", "Bearer "+operator)
		w := httptest.NewRecorder()

		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAttendanceHandler_ListDays(t *testing.T) {
	f := newRouterFixture(t)
	operator := f.token(t, jwt.RoleOperator)

	f.attendance.listDays = func(employeeID string, from, to time.Time) ([]attendance.AttendanceDayResponse, error) {
		assert.Equal(t, testEmployeeID, employeeID)
		assert.Equal(t, "2024-03-01", from.Format(time.DateOnly))
		assert.Equal(t, "2024-03-31", to.Format(time.DateOnly))
		return []attendance.AttendanceDayResponse{}, nil
	}

	w, _ := f.do(t, http.MethodGet, "/api/v1/attendance/employees/"+testEmployeeID+"/days?from=2024-03-01&to=2024-03-31", operator, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = f.do(t, http.MethodGet, "/api/v1/attendance/employees/not-a-uuid/days?from=2024-03-01&to=2024-03-31", operator, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayrollHandler_GetMonth(t *testing.T) {
	f := newRouterFixture(t)
	operator := f.token(t, jwt.RoleOperator)

	f.payroll.getMonth = func(monthKey string) (payroll.PayrollView, error) {
		if monthKey == "2024-13" {
			return payroll.PayrollView{}, fmt.Errorf("get month: %w", period.ErrInvalidMonthKey)
		}
		return payroll.PayrollView{MonthKey: monthKey, NotCalculated: true, Items: []payroll.LineItem{}}, nil
	}

	w, resp := f.do(t, http.MethodGet, "/api/v1/payroll/months/2024-3", operator, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2024-3", data["month_key"])
	assert.Equal(t, true, data["not_calculated"])

	w, _ = f.do(t, http.MethodGet, "/api/v1/payroll/months/2024-13", operator, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPayrollHandler_Recalculate(t *testing.T) {
	f := newRouterFixture(t)
	operator := f.token(t, jwt.RoleOperator)

	f.payroll.recalculate = func(monthKey string) (payroll.PayrollView, error) {
		return payroll.PayrollView{MonthKey: monthKey, Cached: true}, nil
	}
	f.payroll.request = func(monthKey string) (payroll.RecalculationResponse, error) {
		if monthKey == "2024-4" {
			return payroll.RecalculationResponse{}, payroll.ErrQueueFull
		}
		return payroll.RecalculationResponse{MonthKey: monthKey, Queued: true}, nil
	}

	w, _ := f.do(t, http.MethodPost, "/api/v1/payroll/months/2024-3/recalculate", operator, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := f.do(t, http.MethodPost, "/api/v1/payroll/months/2024-3/recalculate?async=true", operator, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.True(t, resp.Success)

	w, _ = f.do(t, http.MethodPost, "/api/v1/payroll/months/2024-4/recalculate?async=true", operator, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPayrollHandler_UpdateItemStatus(t *testing.T) {
	f := newRouterFixture(t)
	operator := f.token(t, jwt.RoleOperator)

	var got payroll.UpdateItemStatusRequest
	f.payroll.updateItem = func(req payroll.UpdateItemStatusRequest) (payroll.LineItem, error) {
		got = req
		return payroll.LineItem{EmployeeID: req.EmployeeID, Status: req.Status}, nil
	}

	w, _ := f.do(t, http.MethodPatch, "/api/v1/payroll/months/2024-3/items/"+testEmployeeID, operator, map[string]interface{}{
		"status": "Paid",
		"note":   "bank transfer",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-3", got.MonthKey)
	assert.Equal(t, testEmployeeID, got.EmployeeID)
	assert.Equal(t, payroll.ItemStatusPaid, got.Status)
	require.NotNil(t, got.Note)
	assert.Equal(t, "bank transfer", *got.Note)
}

func TestConfigWrites_RequireAdmin(t *testing.T) {
	f := newRouterFixture(t)
	operator := f.token(t, jwt.RoleOperator)
	admin := f.token(t, jwt.RoleAdmin)
	subUnitID := "0190a6f2-6b2c-7d4e-8f00-0000000000aa"

	w, _ := f.do(t, http.MethodPut, "/api/v1/policies/"+subUnitID, operator, map[string]interface{}{"fixed_salary": true})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, f.policy.upserted)

	w, _ = f.do(t, http.MethodPut, "/api/v1/policies/"+subUnitID, admin, map[string]interface{}{"fixed_salary": true})
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, f.policy.upserted)
	assert.Equal(t, subUnitID, f.policy.upserted.SubUnitID)
	require.NotNil(t, f.policy.upserted.FixedSalary)
	assert.True(t, *f.policy.upserted.FixedSalary)

	w, _ = f.do(t, http.MethodDelete, "/api/v1/charges/PF", operator, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, f.charge.deleted)

	w, _ = f.do(t, http.MethodDelete, "/api/v1/charges/MISSING", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "MISSING", f.charge.deleted)
}

func TestEventsHandler_Stream(t *testing.T) {
	f := newRouterFixture(t)
	server := httptest.NewServer(f.router)
	defer server.Close()

	t.Run("rejects missing and access tokens", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/v1/events")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

		resp, err = http.Get(server.URL + "/api/v1/events?token=" + f.token(t, jwt.RoleAdmin))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("delivers broadcast events", func(t *testing.T) {
		_, tokenResp := f.do(t, http.MethodGet, "/api/v1/events/token", f.token(t, jwt.RoleOperator), nil)
		data, ok := tokenResp.Data.(map[string]interface{})
		require.True(t, ok)
		sseToken, _ := data["token"].(string)
		require.NotEmpty(t, sseToken)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/events?token="+sseToken, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

		lines := bufio.NewScanner(resp.Body)
		nextEvent := func() (string, string) {
			var event, data string
			for lines.Scan() {
				line := lines.Text()
				switch {
				case strings.HasPrefix(line, "event: "):
					event = strings.TrimPrefix(line, "event: ")
				case strings.HasPrefix(line, "data: "):
					data = strings.TrimPrefix(line, "data: ")
				case line == "" && event != "":
					return event, data
				}
			}
			return event, data
		}

		event, _ := nextEvent()
		require.Equal(t, "connected", event)

		require.Eventually(t, func() bool { return f.hub.TotalSubscribers() == 1 }, time.Second, 10*time.Millisecond)
		sse.NewPayrollNotifier(f.hub).PayrollRecalculated(payroll.MonthlyRecord{MonthKey: "2024-3", TotalRecords: 2})

		event, payload := nextEvent()
		assert.Equal(t, sse.EventPayrollRecalculated, event)
		assert.Contains(t, payload, `"month_key":"2024-3"`)
		assert.Contains(t, payload, `"total_records":2`)
	})
}
