package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

// Migration commands accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateDown   = "down"
	MigrateStatus = "status"
)

// NewProvider returns a goose provider over the embedded migrations for dialect.
func NewProvider(db *sql.DB, dialect Dialect) (*goose.Provider, error) {
	var (
		gooseDialect goose.Dialect
		dir          string
	)
	switch dialect {
	case Postgres:
		gooseDialect, dir = goose.DialectPostgres, "migrations/postgres"
	case SQLite:
		gooseDialect, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", dialect)
	}

	sub, err := fs.Sub(migrationFS, dir)
	if err != nil {
		return nil, fmt.Errorf("migrations sub-fs: %w", err)
	}

	// Each SQL migration runs in its own transaction; a failed statement
	// leaves the version table untouched.
	provider, err := goose.NewProvider(gooseDialect, db, sub)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return provider, nil
}

// Migrate runs one migration command: up applies everything pending, down
// rolls back the latest migration, status logs each migration's state.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect, command string, logger *slog.Logger) error {
	provider, err := NewProvider(db, dialect)
	if err != nil {
		return err
	}

	switch command {
	case MigrateUp:
		results, err := provider.Up(ctx)
		if err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		for _, r := range results {
			logger.Info("applied migration",
				slog.Int64("version", r.Source.Version),
				slog.Duration("duration", r.Duration))
		}
		if len(results) == 0 {
			logger.Info("database schema is up to date")
		}
	case MigrateDown:
		result, err := provider.Down(ctx)
		if err != nil {
			return fmt.Errorf("roll back migration: %w", err)
		}
		logger.Info("rolled back migration", slog.Int64("version", result.Source.Version))
	case MigrateStatus:
		statuses, err := provider.Status(ctx)
		if err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		for _, s := range statuses {
			logger.Info("migration status",
				slog.Int64("version", s.Source.Version),
				slog.String("state", string(s.State)),
				slog.Time("applied_at", s.AppliedAt))
		}
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
	return nil
}
