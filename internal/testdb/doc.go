// Package testdb provides utilities for database-backed tests.
//
// OpenSQLite gives every test its own migrated SQLite file, so store and
// service tests run without any external service. OpenPostgres connects to
// KIOKU_TEST_DATABASE_URL, applies the same migrations, and skips the test when
// the variable is unset. WithTx runs a test body inside a transaction that is
// always rolled back, for isolation against a shared Postgres database.
//
// The Insert helpers create rows the review engine only reads (decks, level
// order overrides, cards with level tags).
package testdb
