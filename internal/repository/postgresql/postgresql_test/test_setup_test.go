package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/cmlabs-hris/edi-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

// TestDatabaseSetup holds the connection used by the repository integration tests.
type TestDatabaseSetup struct {
	DB *database.DB
}

// schema is the subset of tables the integration tests touch.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ir_sequences (
		code TEXT PRIMARY KEY,
		prefix TEXT NOT NULL DEFAULT '',
		padding INT NOT NULL DEFAULT 0,
		number_next BIGINT NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		full_name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS edi_payslips (
		id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		company_id TEXT NOT NULL,
		year INT NOT NULL,
		month INT NOT NULL,
		employee_id TEXT NOT NULL,
		contract_id TEXT,
		state TEXT NOT NULL DEFAULT 'draft',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (company_id, year, month, employee_id)
	)`,
	`CREATE TABLE IF NOT EXISTS payslips (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		contract_id TEXT,
		number TEXT NOT NULL DEFAULT '',
		year INT NOT NULL,
		month INT NOT NULL,
		state TEXT NOT NULL,
		credit_note BOOLEAN NOT NULL DEFAULT FALSE,
		origin_payslip_id TEXT,
		net_amount NUMERIC(18, 2) NOT NULL DEFAULT 0,
		edi_payslip_id TEXT REFERENCES edi_payslips (id) ON DELETE SET NULL
	)`,
}

// NewTestDatabase connects to TEST_DATABASE_URL and skips the test when it is unset.
func NewTestDatabase(t *testing.T) *TestDatabaseSetup {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{MaxConns: 4})
	require.NoError(t, err)

	for _, stmt := range schema {
		_, err := db.Exec(ctx, stmt)
		require.NoError(t, err)
	}

	setup := &TestDatabaseSetup{DB: db}
	require.NoError(t, setup.TruncateAllTables(ctx))
	t.Cleanup(setup.Close)
	return setup
}

// TruncateAllTables removes all rows from the test tables.
func (s *TestDatabaseSetup) TruncateAllTables(ctx context.Context) error {
	tx, err := s.DB.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, table := range []string{"payslips", "edi_payslips", "employees", "ir_sequences"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	return tx.Commit(ctx)
}

func (s *TestDatabaseSetup) Close() {
	s.DB.Close()
}
