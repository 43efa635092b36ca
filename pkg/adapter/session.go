package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// ConnSession runs every statement on one dedicated *sql.Conn, so that
// connection-scoped state (temporary tables, session settings, open
// transactions) is visible to later statements.
type ConnSession struct {
	Conn   *sql.Conn
	Logger *slog.Logger
}

// Exec executes a SQL statement that doesn't return rows.
func (s *ConnSession) Exec(ctx context.Context, sqlStr string) error {
	if s.Conn == nil {
		return fmt.Errorf("session is closed")
	}
	if _, err := s.Conn.ExecContext(ctx, sqlStr); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (s *ConnSession) Query(ctx context.Context, sqlStr string) (*core.Rows, error) {
	if s.Conn == nil {
		return nil, fmt.Errorf("session is closed")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := s.Conn.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// Close returns the connection to the pool. Closing twice is a no-op.
func (s *ConnSession) Close() error {
	if s.Conn == nil {
		return nil
	}
	err := s.Conn.Close()
	s.Conn = nil
	if s.Logger != nil {
		s.Logger.Debug("session released")
	}
	return err
}

// Ensure ConnSession implements core.Session
var _ core.Session = (*ConnSession)(nil)
