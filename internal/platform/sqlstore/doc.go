// Package sqlstore implements the store interfaces on database/sql for both
// Postgres (pgx) and SQLite (modernc). Queries are written once with "?"
// placeholders and rebound for the active dialect. Timestamps are stored as
// Unix milliseconds so range comparisons behave identically on both backends.
package sqlstore
