package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistryLoadError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *RegistryLoadError
		want string
	}{
		{
			name: "source and example",
			err:  &RegistryLoadError{Source: "employees.yaml", ExampleID: "count", Reason: "duplicate id"},
			want: `catalog employees.yaml: example "count": duplicate id`,
		},
		{
			name: "example only",
			err:  &RegistryLoadError{ExampleID: "count", Reason: "empty expectation"},
			want: `catalog: example "count": empty expectation`,
		},
		{
			name: "source only",
			err:  &RegistryLoadError{Source: "x.md", Reason: "unreadable"},
			want: "catalog x.md: unreadable",
		},
		{
			name: "bare",
			err:  &RegistryLoadError{Reason: "no examples"},
			want: "catalog: no examples",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestStatementExecutionError_UnwrapsTimeout(t *testing.T) {
	err := fmt.Errorf("running example: %w", &StatementExecutionError{
		ExampleID: "slow",
		Phase:     PhaseQuery,
		Err:       &TimeoutError{Timeout: 2 * time.Second},
	})

	var timeout *TimeoutError
	assert.True(t, errors.As(err, &timeout))
	assert.Equal(t, 2*time.Second, timeout.Timeout)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "query failed: statement exceeded timeout of 2s")
}

func TestStatementExecutionError_SetupIndexIsOneBased(t *testing.T) {
	err := &StatementExecutionError{Phase: PhaseSetup, Index: 0, Err: errors.New("boom")}
	assert.Equal(t, "setup statement 1 failed: boom", err.Error())
}

func TestStatementExecutionError_IncludesCode(t *testing.T) {
	err := &StatementExecutionError{Phase: PhaseQuery, Code: "42P01", Err: errors.New(`relation "staff" does not exist`)}
	assert.Equal(t, `query failed [42P01]: relation "staff" does not exist`, err.Error())
}

func TestConnectionError_Unwrap(t *testing.T) {
	cause := errors.New("refused")
	err := &ConnectionError{Adapter: "postgres", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cannot connect to postgres database: refused", err.Error())
}

func TestComparisonOutcome_Err(t *testing.T) {
	pass := &ComparisonOutcome{ExampleID: "a", Status: StatusPass}
	assert.NoError(t, pass.Err())

	fail := &ComparisonOutcome{ExampleID: "b", Status: StatusFail, Mismatches: []Mismatch{{Kind: MismatchMissing}}}
	var mismatch *ComparisonMismatch
	assert.ErrorAs(t, fail.Err(), &mismatch)
	assert.Equal(t, 1, mismatch.Count)

	errored := &ComparisonOutcome{ExampleID: "c", Status: StatusError, Error: "relation does not exist"}
	assert.EqualError(t, errored.Err(), "relation does not exist")
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pass", "FAIL", " error "} {
		_, err := ParseStatus(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseStatus("skipped")
	assert.Error(t, err)
}
