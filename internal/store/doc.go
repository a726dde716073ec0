// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the review engine, so scheduling rules remain independent of the
// database in use. Implementations live in internal/platform/sqlstore.
package store
