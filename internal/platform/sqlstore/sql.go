package sqlstore

import (
	"database/sql"
	"strings"
	"time"

	"github.com/phrazzld/kioku-api/internal/platform/database"
)

// maxInArgs bounds the number of bind parameters in one IN list.
const maxInArgs = 500

func rebind(dialect database.Dialect, query string) string {
	return database.Rebind(dialect, query)
}

// byteOrder returns an ORDER BY expression that compares column bytewise,
// matching SQLite's default BINARY collation on Postgres.
func byteOrder(dialect database.Dialect, column string) string {
	if dialect == database.Postgres {
		return column + ` COLLATE "C"`
	}
	return column
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// chunks splits ids into slices of at most maxInArgs.
func chunks(ids []string) [][]string {
	var out [][]string
	for len(ids) > maxInArgs {
		out = append(out, ids[:maxInArgs])
		ids = ids[maxInArgs:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
