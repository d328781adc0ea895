package payroll

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
)

type PayrollServiceImpl struct {
	manager      payroll.CacheManager
	calculator   payroll.Calculator
	trigger      payroll.Trigger
	employeeRepo employee.EmployeeRepository
}

func NewPayrollService(
	manager payroll.CacheManager,
	calculator payroll.Calculator,
	trigger payroll.Trigger,
	employeeRepo employee.EmployeeRepository,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		manager:      manager,
		calculator:   calculator,
		trigger:      trigger,
		employeeRepo: employeeRepo,
	}
}

func (s *PayrollServiceImpl) GetPayroll(ctx context.Context, from, to time.Time) (payroll.PayrollView, error) {
	return s.manager.Get(ctx, from, to)
}

func (s *PayrollServiceImpl) GetMonth(ctx context.Context, monthKey string) (payroll.PayrollView, error) {
	window, err := period.MonthOfKey(monthKey)
	if err != nil {
		return payroll.PayrollView{}, err
	}
	return s.manager.Get(ctx, window.Start, window.End)
}

func (s *PayrollServiceImpl) Exists(ctx context.Context, monthKey string) (payroll.MonthExistsResponse, error) {
	window, err := period.MonthOfKey(monthKey)
	if err != nil {
		return payroll.MonthExistsResponse{}, err
	}
	exists, err := s.manager.Exists(ctx, window.MonthKey())
	if err != nil {
		return payroll.MonthExistsResponse{}, err
	}
	return payroll.MonthExistsResponse{MonthKey: window.MonthKey(), Exists: exists}, nil
}

// RecalculateNow rebuilds the month synchronously, for the "Calculate Now" action.
func (s *PayrollServiceImpl) RecalculateNow(ctx context.Context, monthKey string) (payroll.PayrollView, error) {
	rec, err := s.manager.Recalculate(ctx, monthKey)
	if err != nil {
		return payroll.PayrollView{}, err
	}
	return payroll.NewViewFromRecord(rec), nil
}

func (s *PayrollServiceImpl) RequestRecalculation(ctx context.Context, monthKey string) (payroll.RecalculationResponse, error) {
	window, err := period.MonthOfKey(monthKey)
	if err != nil {
		return payroll.RecalculationResponse{}, err
	}
	if !s.trigger.Enqueue(window.MonthKey()) {
		return payroll.RecalculationResponse{}, payroll.ErrQueueFull
	}
	return payroll.RecalculationResponse{MonthKey: window.MonthKey(), Queued: true}, nil
}

func (s *PayrollServiceImpl) UpdateItemStatus(ctx context.Context, req payroll.UpdateItemStatusRequest) (payroll.LineItem, error) {
	return s.manager.UpdateItemStatus(ctx, req)
}

func (s *PayrollServiceImpl) CalculateEmployee(ctx context.Context, employeeID string, from, to time.Time) (payroll.LineItem, error) {
	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return payroll.LineItem{}, err
	}
	return s.calculator.Calculate(ctx, emp, from, to)
}
