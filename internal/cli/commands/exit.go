package commands

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/leapcheck/internal/report"
)

// ExitError carries a process exit code out of a command. With a nil Err
// the outcome has already been reported and nothing more is printed.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Silent reports whether the error has nothing left to print.
func (e *ExitError) Silent() bool {
	return e.Err == nil
}

// ExitCode maps a command error to a process exit code. Anything that is not
// an *ExitError (bad catalog, unknown example id, unreachable database, bad
// flags) is an error run.
func ExitCode(err error) int {
	if err == nil {
		return report.ExitPass
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return report.ExitError
}
