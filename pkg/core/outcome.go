package core

import (
	"errors"
	"time"
)

// ExecutionResult captures what the database returned for one example.
// It lives for a single run and is never persisted.
type ExecutionResult struct {
	ExampleID string
	Columns   []string
	Rows      []Row
	Err       error
	Duration  time.Duration
}

// MismatchKind classifies a single difference between expected and actual rows.
type MismatchKind string

// Mismatch kinds.
const (
	// MismatchDiffers is a positional difference in an ordered comparison.
	MismatchDiffers MismatchKind = "differs"
	// MismatchMissing is an expected row absent from the actual rows.
	MismatchMissing MismatchKind = "missing"
	// MismatchUnexpected is an actual row absent from the expected rows.
	MismatchUnexpected MismatchKind = "unexpected"
	// MismatchColumns is a difference in the result column set.
	MismatchColumns MismatchKind = "columns"
)

// Mismatch describes one difference. RowIndex refers to the expected rows
// for differs and missing, and to the actual rows for unexpected.
type Mismatch struct {
	Kind     MismatchKind `json:"kind"`
	RowIndex int          `json:"row_index"`
	Expected Row          `json:"expected,omitempty"`
	Actual   Row          `json:"actual,omitempty"`
}

// ComparisonOutcome is the verdict for one example.
type ComparisonOutcome struct {
	ExampleID  string        `json:"example_id"`
	Status     Status        `json:"status"`
	Columns    []string      `json:"columns,omitempty"`
	Mismatches []Mismatch    `json:"mismatches,omitempty"`
	Note       string        `json:"note,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns,omitzero"`
}

// Err returns the outcome as an error value, or nil when it passed.
func (o *ComparisonOutcome) Err() error {
	switch o.Status {
	case StatusFail:
		return &ComparisonMismatch{ExampleID: o.ExampleID, Count: len(o.Mismatches), Note: o.Note}
	case StatusError:
		if o.Error != "" {
			return errors.New(o.Error)
		}
		return errors.New(o.Note)
	default:
		return nil
	}
}
