// Package report aggregates comparison outcomes into a run summary and
// renders it for people and machines.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Exit codes of a run.
const (
	ExitPass  = 0
	ExitFail  = 1
	ExitError = 2
)

// Meta describes the run a summary belongs to.
type Meta struct {
	RunID      string    `json:"run_id,omitempty"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Adapter    string    `json:"adapter,omitempty"`
	// Database is the redacted database URL.
	Database string   `json:"database,omitempty"`
	Catalogs []string `json:"catalogs,omitempty"`
}

// Summary is the aggregated result of a run.
type Summary struct {
	Meta     Meta                     `json:"meta"`
	Total    int                      `json:"total"`
	Passed   int                      `json:"passed"`
	Failed   int                      `json:"failed"`
	Errored  int                      `json:"errored"`
	Outcomes []core.ComparisonOutcome `json:"outcomes"`
}

// Build counts outcomes. The outcomes slice is copied, in run order.
func Build(outcomes []core.ComparisonOutcome, meta Meta) Summary {
	s := Summary{
		Meta:     meta,
		Total:    len(outcomes),
		Outcomes: append([]core.ComparisonOutcome(nil), outcomes...),
	}
	for _, o := range outcomes {
		switch o.Status {
		case core.StatusPass:
			s.Passed++
		case core.StatusFail:
			s.Failed++
		default:
			s.Errored++
		}
	}
	return s
}

// ExitCode is 2 when anything errored, 1 when anything failed, else 0.
func (s Summary) ExitCode() int {
	switch {
	case s.Errored > 0:
		return ExitError
	case s.Failed > 0:
		return ExitFail
	default:
		return ExitPass
	}
}

// OK reports whether every example passed.
func (s Summary) OK() bool {
	return s.ExitCode() == ExitPass
}

// Duration is the wall time of the run.
func (s Summary) Duration() time.Duration {
	if s.Meta.FinishedAt.IsZero() || s.Meta.StartedAt.IsZero() {
		return 0
	}
	return s.Meta.FinishedAt.Sub(s.Meta.StartedAt)
}

// WithoutTimings returns a copy with the run id, timestamps and per-example
// durations cleared, so two runs with the same verdicts render identically.
func (s Summary) WithoutTimings() Summary {
	out := s
	out.Meta.RunID = ""
	out.Meta.StartedAt = time.Time{}
	out.Meta.FinishedAt = time.Time{}
	out.Outcomes = make([]core.ComparisonOutcome, len(s.Outcomes))
	for i, o := range s.Outcomes {
		o.Duration = 0
		out.Outcomes[i] = o
	}
	return out
}

// NewRunID returns a time-ordered run identifier.
func NewRunID() string {
	if v7, err := uuid.NewV7(); err == nil {
		return v7.String()
	}
	return uuid.New().String()
}
