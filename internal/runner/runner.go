// Package runner ties the pipeline together: examples are executed on one
// session, each result is compared as it arrives, and the outcomes are
// aggregated into a report summary.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapcheck/internal/compare"
	"github.com/leapstack-labs/leapcheck/internal/engine"
	"github.com/leapstack-labs/leapcheck/internal/report"
	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Options configures a run.
type Options struct {
	// AdapterConfig selects the database. Ignored when Adapter is set.
	AdapterConfig adapter.Config
	Adapter       adapter.Adapter

	Timeout           time.Duration
	DecimalPlaces     int
	ReleaseStatements []string

	// Database and Catalogs only label the summary.
	Database string
	Catalogs []string

	// OnOutcome is called once per example, in order, as soon as its
	// outcome is known.
	OnOutcome func(core.ComparisonOutcome)

	Logger *slog.Logger
}

// Run executes examples and returns the summary. The summary always lists
// every example exactly once. A non-nil error means the run was cut short
// (connection failure, interrupt); the examples that did not run are
// reported as errors.
func Run(ctx context.Context, examples []core.Example, opts Options) (report.Summary, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	meta := report.Meta{
		RunID:     report.NewRunID(),
		StartedAt: time.Now().UTC(),
		Adapter:   opts.AdapterConfig.Type,
		Database:  opts.Database,
		Catalogs:  opts.Catalogs,
	}
	if opts.Adapter != nil && meta.Adapter == "" {
		meta.Adapter = opts.Adapter.DialectName()
	}

	exec, err := engine.New(engine.Config{
		AdapterConfig:     opts.AdapterConfig,
		Adapter:           opts.Adapter,
		Timeout:           opts.Timeout,
		ReleaseStatements: opts.ReleaseStatements,
		Logger:            logger,
	})
	if err != nil {
		meta.FinishedAt = time.Now().UTC()
		return report.Build(notRun(examples, err), meta), err
	}

	cmp := compare.New(compare.Options{DecimalPlaces: opts.DecimalPlaces})
	byID := make(map[string]core.Example, len(examples))
	for _, ex := range examples {
		byID[ex.ID] = ex
	}

	outcomes := make([]core.ComparisonOutcome, 0, len(examples))
	emit := func(res core.ExecutionResult) {
		o := cmp.Compare(byID[res.ExampleID], res)
		logger.Debug("example compared", "example", o.ExampleID, "status", o.Status, "duration", o.Duration)
		outcomes = append(outcomes, o)
		if opts.OnOutcome != nil {
			opts.OnOutcome(o)
		}
	}

	logger.Info("running examples", "run_id", meta.RunID, "count", len(examples), "adapter", meta.Adapter)
	results, runErr := exec.RunAll(ctx, examples, emit)

	// results beyond what was emitted were filled in after an abort
	for _, res := range results[len(outcomes):] {
		emit(res)
	}

	meta.FinishedAt = time.Now().UTC()
	sum := report.Build(outcomes, meta)
	if runErr != nil {
		logger.Warn("run aborted", "run_id", meta.RunID, "error", runErr, "completed", len(outcomes))
		return sum, runErr
	}
	logger.Info("run finished", "run_id", meta.RunID, "passed", sum.Passed, "failed", sum.Failed, "errored", sum.Errored)
	return sum, nil
}

func notRun(examples []core.Example, err error) []core.ComparisonOutcome {
	outcomes := make([]core.ComparisonOutcome, len(examples))
	for i, ex := range examples {
		outcomes[i] = core.ComparisonOutcome{
			ExampleID: ex.ID,
			Status:    core.StatusError,
			Error:     fmt.Sprintf("not run: %v", err),
		}
	}
	return outcomes
}
