package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type loanRepositoryImpl struct {
	db *database.DB
}

func NewLoanRepository(db *database.DB) loan.LoanRepository {
	return &loanRepositoryImpl{db: db}
}

const loanColumns = `id, employee_id, type, amount, installment_count, start_date, is_active, created_at, updated_at`

func scanLoan(row pgx.Row) (loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.EmployeeID, &l.Type, &l.Amount, &l.InstallmentCount, &l.StartDate, &l.IsActive,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

// GetByID implements loan.LoanRepository.
func (r *loanRepositoryImpl) GetByID(ctx context.Context, id string) (loan.Loan, error) {
	q := GetQuerier(ctx, r.db)

	l, err := scanLoan(q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return loan.Loan{}, loan.ErrLoanNotFound
		}
		return loan.Loan{}, fmt.Errorf("failed to get loan with id %s: %w", id, err)
	}
	return l, nil
}

// ListByEmployee implements loan.LoanRepository.
func (r *loanRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, activeOnly bool) ([]loan.Loan, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + loanColumns + `
		FROM loans
		WHERE employee_id = $1 AND ($2 = FALSE OR is_active)
		ORDER BY start_date, created_at
	`

	rows, err := q.Query(ctx, query, employeeID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []loan.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return loans, nil
}

// Create implements loan.LoanRepository.
func (r *loanRepositoryImpl) Create(ctx context.Context, newLoan loan.Loan) (loan.Loan, error) {
	q := GetQuerier(ctx, r.db)

	if newLoan.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return loan.Loan{}, fmt.Errorf("failed to generate loan id: %w", err)
		}
		newLoan.ID = id.String()
	}

	query := `
		INSERT INTO loans (id, employee_id, type, amount, installment_count, start_date, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + loanColumns

	created, err := scanLoan(q.QueryRow(ctx, query,
		newLoan.ID, newLoan.EmployeeID, newLoan.Type, newLoan.Amount, newLoan.InstallmentCount,
		newLoan.StartDate, newLoan.IsActive,
	))
	if err != nil {
		return loan.Loan{}, fmt.Errorf("failed to create loan: %w", err)
	}
	return created, nil
}

// Deactivate implements loan.LoanRepository.
func (r *loanRepositoryImpl) Deactivate(ctx context.Context, id string) (loan.Loan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE loans
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + loanColumns

	l, err := scanLoan(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return loan.Loan{}, loan.ErrLoanNotFound
		}
		return loan.Loan{}, fmt.Errorf("failed to deactivate loan with id %s: %w", id, err)
	}
	return l, nil
}
