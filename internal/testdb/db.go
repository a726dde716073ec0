package testdb

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phrazzld/kioku-api/internal/config"
	"github.com/phrazzld/kioku-api/internal/platform/database"
	"github.com/stretchr/testify/require"
)

// EnvDatabaseURL names the variable holding the Postgres test database URL.
const EnvDatabaseURL = "KIOKU_TEST_DATABASE_URL"

// GetTestDatabaseURL returns the Postgres test database URL, or "".
func GetTestDatabaseURL() string {
	return os.Getenv(EnvDatabaseURL)
}

// ShouldSkipDatabaseTest reports whether Postgres tests should be skipped.
func ShouldSkipDatabaseTest() bool {
	return GetTestDatabaseURL() == ""
}

func open(t *testing.T, cfg config.DatabaseConfig) (*sql.DB, database.Dialect) {
	t.Helper()

	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	db, dialect, err := database.Open(ctx, cfg, logger)
	require.NoError(t, err, "Failed to open test database")
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: failed to close database connection: %v", err)
		}
	})

	require.NoError(t, database.Migrate(ctx, db, dialect, database.MigrateUp, logger),
		"Failed to run migrations")
	return db, dialect
}

// OpenSQLite returns a migrated SQLite database private to the test.
func OpenSQLite(t *testing.T) (*sql.DB, database.Dialect) {
	t.Helper()
	return open(t, config.DatabaseConfig{
		Driver: string(database.SQLite),
		URL:    "file:" + filepath.Join(t.TempDir(), "kioku.db"),
	})
}

// OpenPostgres returns a migrated connection to the Postgres test database,
// skipping the test when KIOKU_TEST_DATABASE_URL is not set.
func OpenPostgres(t *testing.T) (*sql.DB, database.Dialect) {
	t.Helper()
	if ShouldSkipDatabaseTest() {
		t.Skip(EnvDatabaseURL + " not set - skipping Postgres test")
	}
	return open(t, config.DatabaseConfig{
		Driver:          string(database.Postgres),
		URL:             GetTestDatabaseURL(),
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Minute,
	})
}

// WithTx executes a test function within a transaction, automatically rolling back
// after the test completes. This ensures test isolation and prevents side effects.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "Failed to begin transaction")

	defer func() {
		err := tx.Rollback()
		// sql.ErrTxDone is expected if tx is already committed or rolled back
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}
