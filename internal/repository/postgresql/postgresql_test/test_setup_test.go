package postgresql_test

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/schema.sql
var schemaSQL string

// TestDatabaseSetup holds the connection to the database named by TEST_DATABASE_URL.
type TestDatabaseSetup struct {
	DB *database.DB
}

// NewTestDatabase connects and creates the schema. Tests are skipped when
// TEST_DATABASE_URL is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(context.Background(), dsn, database.PoolConfig{MaxConns: 4})
	require.NoError(t, err, "failed to connect to test database")

	setup := &TestDatabaseSetup{DB: db}
	_, err = db.Exec(context.Background(), schemaSQL)
	require.NoError(t, err, "failed to create schema")
	require.NoError(t, setup.TruncateAllTables(context.Background()))

	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables removes every row so each test starts empty.
func (t *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := t.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tables := []string{
		"monthly_attendance_summaries",
		"monthly_payrolls",
		"loans",
		"charge_rates",
		"salary_policy_overrides",
		"holidays",
		"attendance_days",
		"employees",
		"sub_units",
	}

	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

func (t *TestDatabaseSetup) Close() {
	t.DB.Close()
}

func (t *TestDatabaseSetup) createSubUnit(tb testing.TB, name string) string {
	tb.Helper()
	var id string
	err := t.DB.QueryRow(context.Background(), `INSERT INTO sub_units (name) VALUES ($1) RETURNING id`, name).Scan(&id)
	require.NoError(tb, err)
	return id
}

func (t *TestDatabaseSetup) createEmployee(tb testing.TB, code string, subUnitID *string, flags []string) string {
	tb.Helper()
	if flags == nil {
		flags = []string{}
	}
	var id string
	err := t.DB.QueryRow(context.Background(), `
		INSERT INTO employees (employee_code, full_name, sub_unit_id, salary, salary_type, shift_text, deduction_flags, join_date)
		VALUES ($1, $2, $3, 26000, 'monthly', '9 hrs', $4, '2023-01-01')
		RETURNING id
	`, code, "Employee "+code, subUnitID, flags).Scan(&id)
	require.NoError(tb, err)
	return id
}
