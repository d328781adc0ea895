package loan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/period"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

type LoanServiceImpl struct {
	loanRepo     loan.LoanRepository
	employeeRepo employee.EmployeeRepository
	trigger      payroll.Trigger
	now          func() time.Time
}

func NewLoanService(loanRepo loan.LoanRepository, employeeRepo employee.EmployeeRepository, trigger payroll.Trigger) *LoanServiceImpl {
	return &LoanServiceImpl{
		loanRepo:     loanRepo,
		employeeRepo: employeeRepo,
		trigger:      trigger,
		now:          time.Now,
	}
}

func (s *LoanServiceImpl) Create(ctx context.Context, req loan.CreateLoanRequest) (loan.LoanResponse, error) {
	if err := req.Validate(); err != nil {
		return loan.LoanResponse{}, err
	}

	if _, err := s.employeeRepo.GetByID(ctx, req.EmployeeID); err != nil {
		return loan.LoanResponse{}, err
	}

	startDate := period.Date(s.now())
	if req.Type == loan.TypeLoan {
		startDate, _ = validator.IsValidDate(req.StartDate)
	}

	created, err := s.loanRepo.Create(ctx, loan.Loan{
		EmployeeID:       req.EmployeeID,
		Type:             req.Type,
		Amount:           req.Amount,
		InstallmentCount: req.InstallmentCount,
		StartDate:        startDate,
		IsActive:         true,
	})
	if err != nil {
		return loan.LoanResponse{}, fmt.Errorf("failed to create loan: %w", err)
	}

	slog.Info("Loan created", "loan_id", created.ID, "employee_id", created.EmployeeID, "type", created.Type)
	s.enqueueAffectedMonths(created)

	return toResponse(created, nil), nil
}

// ListByEmployee returns every loan of the employee, each amortized against
// [from, to] when the window is set.
func (s *LoanServiceImpl) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]loan.LoanResponse, error) {
	if _, err := s.employeeRepo.GetByID(ctx, employeeID); err != nil {
		return nil, err
	}

	loans, err := s.loanRepo.ListByEmployee(ctx, employeeID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	responses := make([]loan.LoanResponse, 0, len(loans))
	for _, l := range loans {
		var amortization *loan.Amortization
		if l.IsActive && !from.IsZero() && !to.IsZero() {
			a, err := Amortize(l, from, to)
			if err != nil {
				return nil, err
			}
			amortization = &a
		}
		responses = append(responses, toResponse(l, amortization))
	}
	return responses, nil
}

func (s *LoanServiceImpl) Deactivate(ctx context.Context, id string) error {
	existing, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !existing.IsActive {
		return loan.ErrLoanAlreadyInactive
	}

	deactivated, err := s.loanRepo.Deactivate(ctx, id)
	if err != nil {
		return err
	}

	slog.Info("Loan deactivated", "loan_id", id, "employee_id", deactivated.EmployeeID)
	s.enqueueAffectedMonths(deactivated)
	return nil
}

// enqueueAffectedMonths schedules every cached month from the loan start up to
// the current month. Months past the current one are not cached yet.
func (s *LoanServiceImpl) enqueueAffectedMonths(l loan.Loan) {
	now := period.Date(s.now())
	start := l.StartDate
	if l.Type == loan.TypeAdvance || start.IsZero() || start.After(now) {
		start = now
	}

	window, err := period.New(start, now)
	if err != nil {
		slog.Error("Invalid loan window", "loan_id", l.ID, "error", err)
		return
	}
	for _, monthKey := range window.MonthKeys() {
		if !s.trigger.Enqueue(monthKey) {
			slog.Warn("Payroll recalculation not queued after loan change", "loan_id", l.ID, "month_key", monthKey)
		}
	}
}

func toResponse(l loan.Loan, amortization *loan.Amortization) loan.LoanResponse {
	resp := loan.LoanResponse{
		ID:               l.ID,
		EmployeeID:       l.EmployeeID,
		Type:             l.Type,
		Amount:           l.Amount,
		InstallmentCount: l.InstallmentCount,
		IsActive:         l.IsActive,
		Amortization:     amortization,
		CreatedAt:        l.CreatedAt,
	}
	if l.Type == loan.TypeLoan && !l.StartDate.IsZero() {
		startDate := l.StartDate.Format("2006-01-02")
		resp.StartDate = &startDate
	}
	return resp
}
