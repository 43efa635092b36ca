package core

import (
	"context"
	"fmt"
	"time"
)

// RegistryLoadError reports a bad catalog. It aborts the whole run before
// any database I/O.
type RegistryLoadError struct {
	Source    string
	ExampleID string
	Reason    string
}

func (e *RegistryLoadError) Error() string {
	switch {
	case e.Source != "" && e.ExampleID != "":
		return fmt.Sprintf("catalog %s: example %q: %s", e.Source, e.ExampleID, e.Reason)
	case e.ExampleID != "":
		return fmt.Sprintf("catalog: example %q: %s", e.ExampleID, e.Reason)
	case e.Source != "":
		return fmt.Sprintf("catalog %s: %s", e.Source, e.Reason)
	default:
		return "catalog: " + e.Reason
	}
}

// NotFoundError is returned when an example id is not in the registry.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("example %q not found", e.ID)
}

// ConnectionError reports that the database could not be reached. Fatal.
type ConnectionError struct {
	Adapter string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to %s database: %v", e.Adapter, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StatementPhase tells whether a failing statement was setup or the query.
type StatementPhase string

// Statement phases.
const (
	PhaseSetup StatementPhase = "setup"
	PhaseQuery StatementPhase = "query"
)

// StatementExecutionError reports a failed setup or query statement. It is
// scoped to one example and never aborts the run.
type StatementExecutionError struct {
	ExampleID string
	Phase     StatementPhase
	Index     int
	Statement string
	// Code is the database error code (SQLSTATE or vendor number), when the
	// adapter can extract one.
	Code string
	Err  error
}

func (e *StatementExecutionError) Error() string {
	code := ""
	if e.Code != "" {
		code = " [" + e.Code + "]"
	}
	if e.Phase == PhaseSetup {
		return fmt.Sprintf("setup statement %d failed%s: %v", e.Index+1, code, e.Err)
	}
	return fmt.Sprintf("query failed%s: %v", code, e.Err)
}

func (e *StatementExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a statement that exceeded its time budget.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("statement exceeded timeout of %s", e.Timeout)
}

// Unwrap lets errors.Is(err, context.DeadlineExceeded) match timeouts.
func (e *TimeoutError) Unwrap() error {
	return context.DeadlineExceeded
}

// ComparisonMismatch reports that actual rows differ from expected rows.
type ComparisonMismatch struct {
	ExampleID string
	Count     int
	Note      string
}

func (e *ComparisonMismatch) Error() string {
	msg := fmt.Sprintf("example %q: %d mismatch(es)", e.ExampleID, e.Count)
	if e.Note != "" {
		msg += ": " + e.Note
	}
	return msg
}
