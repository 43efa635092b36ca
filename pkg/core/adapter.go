package core

import (
	"context"
	"database/sql"
)

// Adapter defines the interface that all database adapters must implement.
type Adapter interface {
	// Connect establishes a connection pool to the database.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the database connection pool.
	Close() error

	// OpenSession acquires one dedicated connection. Statement side effects
	// that are scoped to a connection persist for the life of the session.
	OpenSession(ctx context.Context) (Session, error)

	// DialectName returns the SQL dialect name (e.g., "postgres", "duckdb").
	DialectName() string
}

// Session is a single connection-scoped context in which statements run.
type Session interface {
	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// Close releases the connection back to the adapter.
	Close() error
}

// SessionInitializer is implemented by adapters that need per-session setup
// such as loading extensions or applying settings.
type SessionInitializer interface {
	InitSession(ctx context.Context, s Session) error
}

// ValueConverter is implemented by adapters whose driver returns values the
// comparator cannot interpret directly (e.g., driver-specific decimal types).
type ValueConverter interface {
	ConvertValue(v any) any
}

// ErrorCoder is implemented by adapters that can extract a database error
// code from a driver error. It returns "" when err carries no code.
type ErrorCoder interface {
	ErrorCode(err error) string
}

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	URL      string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	Params   map[string]any
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
