// Package engine executes examples against a single database session.
// Examples run strictly one at a time in registry order; side effects of
// earlier examples (tables, rows) are visible to later ones.
package engine

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Config holds executor configuration.
type Config struct {
	// AdapterConfig selects and configures the database adapter.
	AdapterConfig adapter.Config

	// Adapter is an already connected adapter. When set, AdapterConfig is
	// only used for error messages and the executor does not close it.
	Adapter adapter.Adapter

	// Timeout bounds every statement. Zero disables the limit.
	Timeout time.Duration

	// ReleaseStatements run best effort before the session is released
	// (e.g., ROLLBACK for a transaction left open by an example).
	ReleaseStatements []string

	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Executor owns the database session for one run.
type Executor struct {
	adp         adapter.Adapter
	ownsAdapter bool
	cfg         Config
	session     adapter.Session
	suspect     bool
	logger      *slog.Logger
}

// New creates an executor. The database is not contacted until Open.
func New(cfg Config) (*Executor, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Executor{cfg: cfg, logger: logger}
	if cfg.Adapter != nil {
		e.adp = cfg.Adapter
		return e, nil
	}

	adp, err := adapter.NewAdapter(cfg.AdapterConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database adapter: %w", err)
	}
	e.adp = adp
	e.ownsAdapter = true
	return e, nil
}

// Open connects (if needed) and acquires the session. Any failure is a
// *core.ConnectionError.
func (e *Executor) Open(ctx context.Context) error {
	if e.session != nil {
		return nil
	}

	if e.ownsAdapter {
		e.logger.Debug("connecting to database", "adapter_type", e.cfg.AdapterConfig.Type)
		if err := e.adp.Connect(ctx, e.cfg.AdapterConfig); err != nil {
			return &core.ConnectionError{Adapter: e.adp.DialectName(), Err: err}
		}
	}

	s, err := adapter.OpenSession(ctx, e.adp)
	if err != nil {
		return &core.ConnectionError{Adapter: e.adp.DialectName(), Err: err}
	}
	e.session = s
	e.logger.Debug("session opened", "dialect", e.adp.DialectName())
	return nil
}

// Close runs the release statements, releases the session and, if the
// executor created the adapter, closes the connection pool. Safe to call
// more than once.
func (e *Executor) Close() error {
	var errs []error
	if e.session != nil {
		e.release()
		if err := e.session.Close(); err != nil {
			errs = append(errs, err)
		}
		e.session = nil
	}
	if e.ownsAdapter && e.adp != nil {
		if err := e.adp.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing executor: %w", errors.Join(errs...))
	}
	return nil
}

func (e *Executor) release() {
	for _, stmt := range e.cfg.ReleaseStatements {
		ctx, cancel := e.statementContext(context.Background())
		if err := e.session.Exec(ctx, stmt); err != nil {
			e.logger.Debug("release statement failed", "sql", stmt, "error", err)
		}
		cancel()
	}
}

// Dialect returns the dialect name of the underlying adapter.
func (e *Executor) Dialect() string {
	return e.adp.DialectName()
}

func (e *Executor) statementContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.Timeout)
}

// classify maps a statement failure onto the error taxonomy and flags the
// session for replacement when the connection can no longer be trusted.
func (e *Executor) classify(ctx, stmtCtx context.Context, err error) error {
	if ctx.Err() == nil && errors.Is(stmtCtx.Err(), context.DeadlineExceeded) {
		e.suspect = true
		return &core.TimeoutError{Timeout: e.cfg.Timeout}
	}
	if isBadConn(err) {
		e.suspect = true
	}
	return err
}

func (e *Executor) errorCode(err error) string {
	if coder, ok := e.adp.(core.ErrorCoder); ok {
		return coder.ErrorCode(err)
	}
	return ""
}

func isBadConn(err error) bool {
	return errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone)
}

// recoverSession checks a session that a previous statement may have left
// unusable. A session that still answers is kept; otherwise one fresh
// session is acquired, and failing that the run cannot continue.
func (e *Executor) recoverSession(ctx context.Context) error {
	if !e.suspect {
		return nil
	}
	e.suspect = false

	pingCtx, cancel := e.statementContext(ctx)
	err := e.session.Exec(pingCtx, pingStatement)
	cancel()
	if err == nil {
		return nil
	}

	e.logger.Info("re-acquiring database session", "reason", err.Error())
	_ = e.session.Close()
	e.session = nil

	s, err := adapter.OpenSession(ctx, e.adp)
	if err != nil {
		return &core.ConnectionError{Adapter: e.adp.DialectName(), Err: err}
	}
	e.session = s
	return nil
}

// pingStatement is valid in every supported dialect.
const pingStatement = "SELECT 1"
