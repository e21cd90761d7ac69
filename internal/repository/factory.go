// Package repository provides data access layer for Cinelog.
// This file contains the types returned when a backend is opened.
package repository

import "context"

// Supported database drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Database is the lifecycle handle of an opened backend.
// It satisfies handler.DatabaseChecker for health endpoints.
type Database interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error

	// Migrate brings the schema (tables, indexes) up to date.
	Migrate(ctx context.Context) error

	Close() error
}

// Backend bundles the repositories of one opened database.
type Backend struct {
	Driver   string
	Repos    *Repositories
	Database Database
}
