package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapcheck/internal/cli/config"
	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/internal/history"
	"github.com/leapstack-labs/leapcheck/internal/report"
	"github.com/leapstack-labs/leapcheck/internal/runner"
	"github.com/leapstack-labs/leapcheck/internal/watch"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// AddRunFlags registers the flags of an example run.
func AddRunFlags(fs *pflag.FlagSet) {
	fs.String("database-url", "", "Database URL (postgres://, duckdb://, sqlite://, mysql://)")
	fs.StringSlice("only", nil, "Run only the given example ids, in catalog order")
	fs.Float64("timeout", config.DefaultTimeout, "Per-statement timeout in seconds")
	fs.StringArray("report", nil, "Also write the report to a file, s3://bucket/key or gs://bucket/key (repeatable)")
	fs.Bool("watch", false, "Re-run when a catalog file changes")
	fs.Int("decimal-places", config.DefaultDecimalPlaces, "Decimal places used when comparing numbers")
}

// RunExamples executes the selected examples and reports the outcome. The
// returned error carries the exit code: 0 all pass, 1 any fail, 2 any error.
func RunExamples(cmd *cobra.Command, _ []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if cmdCtx.Cfg.Watch {
		return watchExamples(ctx, cmdCtx)
	}

	code, err := runOnce(ctx, cmdCtx)
	if err != nil {
		return err
	}
	if code != report.ExitPass {
		return &ExitError{Code: code}
	}
	return nil
}

func watchExamples(ctx context.Context, cmdCtx *CommandContext) error {
	r := cmdCtx.Renderer
	err := watch.Run(ctx, watch.Config{Paths: cmdCtx.Cfg.Catalogs, Logger: cmdCtx.Logger}, func(ctx context.Context) error {
		code, err := runOnce(ctx, cmdCtx)
		if err != nil {
			r.Error(err.Error())
			return nil
		}
		cmdCtx.Logger.Debug("watch run finished", "exit_code", code)
		if r.EffectiveMode() == output.ModeText {
			r.Muted("waiting for changes in " + strings.Join(cmdCtx.Cfg.Catalogs, ", "))
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// runOnce performs one full run. Problems found before any database I/O
// (catalog, selection, configuration) are returned as errors.
func runOnce(ctx context.Context, cmdCtx *CommandContext) (int, error) {
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	logger := cmdCtx.Logger

	reg, err := cmdCtx.LoadRegistry()
	if err != nil {
		return report.ExitError, err
	}
	examples, err := reg.Select(cfg.Only)
	if err != nil {
		return report.ExitError, err
	}
	adapterCfg, err := cfg.AdapterConfig()
	if err != nil {
		return report.ExitError, err
	}
	sinks, err := reportSinks(cfg, r)
	if err != nil {
		return report.ExitError, err
	}

	// live progress only makes sense on a terminal
	var onOutcome func(core.ComparisonOutcome)
	if r.EffectiveMode() == output.ModeText && r.IsTTY() {
		onOutcome = func(o core.ComparisonOutcome) {
			detail := o.Note
			if o.Status == core.StatusError && o.Error != "" {
				detail = o.Error
			}
			r.StatusLine(o.ExampleID, o.Status.String(), detail)
		}
	}

	sum, runErr := runner.Run(ctx, examples, runner.Options{
		AdapterConfig:     adapterCfg,
		Timeout:           cfg.TimeoutDuration(),
		DecimalPlaces:     cfg.DecimalPlaces,
		ReleaseStatements: cfg.ReleaseStatements,
		Database:          cfg.DatabaseLabel(),
		Catalogs:          cfg.Catalogs,
		OnOutcome:         onOutcome,
		Logger:            logger,
	})
	if onOutcome != nil {
		r.Println()
	}

	code := sum.ExitCode()
	if runErr != nil {
		r.Error(runErr.Error())
		code = report.ExitError
	}

	publisher := &report.Publisher{
		Stdout:      r.Writer(),
		Color:       r.ColorEnabled(),
		Verbose:     cfg.Verbose,
		NewUploader: report.DefaultUploaderFactory(cfg.Storage.S3, cfg.Storage.GCS),
		Logger:      logger,
	}
	written, pubErr := publisher.Publish(ctx, sum, sinks)
	if pubErr != nil {
		r.Warn(pubErr.Error())
		code = report.ExitError
	}
	if r.EffectiveMode() == output.ModeText {
		for _, dest := range written {
			if dest != "stdout" {
				r.Muted("report written to " + dest)
			}
		}
	}

	if cfg.History != "" {
		if err := recordHistory(ctx, cmdCtx, sum); err != nil {
			r.Warn(err.Error())
		}
	}

	return code, nil
}

// reportSinks returns the console sink followed by the --report sinks.
func reportSinks(cfg *config.Config, r *output.Renderer) ([]report.Sink, error) {
	sinks := []report.Sink{{Target: "-", Format: r.ReportFormat()}}
	for _, raw := range cfg.Reports {
		sink, err := report.ParseSink(raw, report.FormatJSON)
		if err != nil {
			return nil, fmt.Errorf("invalid --report %q: %w", raw, err)
		}
		if sink.IsConsole() {
			continue
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

func recordHistory(ctx context.Context, cmdCtx *CommandContext, sum report.Summary) error {
	store, err := history.Open(ctx, cmdCtx.Cfg.History, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.RecordRun(ctx, sum)
	if err != nil {
		return fmt.Errorf("failed to record run history: %w", err)
	}
	cmdCtx.Logger.Debug("run recorded", "run_id", run.ID, "path", store.Path())
	return nil
}
