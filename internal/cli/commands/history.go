package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/internal/history"
	"github.com/leapstack-labs/leapcheck/internal/report"
)

// NewHistoryCommand creates the history command and its subcommands.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded runs",
		Long: `Inspect runs recorded with --history.

Runs are addressed by id, by a unique id prefix, or as "latest".`,
	}

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryDiffCommand())
	return cmd
}

func newHistoryListCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withHistory(cmd, func(ctx context.Context, cmdCtx *CommandContext, store *history.Store) error {
				runs, err := store.ListRuns(ctx, limit)
				if err != nil {
					return err
				}
				return printRuns(cmdCtx.Renderer, runs)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id|latest>",
		Short: "Show the report of a recorded run",
		Example: `  run-examples history show latest
  run-examples history show 0192f3 --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, func(ctx context.Context, cmdCtx *CommandContext, store *history.Store) error {
				run, err := store.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				sum, err := store.Summary(ctx, run)
				if err != nil {
					return err
				}
				r := cmdCtx.Renderer
				return report.Write(r.Writer(), sum, report.Options{
					Format:  r.ReportFormat(),
					Color:   r.ColorEnabled(),
					Verbose: cmdCtx.Cfg.Verbose,
				})
			})
		},
	}
}

func newHistoryDiffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <run-a> <run-b>",
		Short: "Compare the outcomes of two recorded runs",
		Long: `Print a unified diff of the per-example outcomes of two runs.

Exits with status 1 when the outcome sequences differ.`,
		Example: `  # Did anything change since the previous run?
  run-examples history diff 0192f3 latest`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(cmd, func(ctx context.Context, cmdCtx *CommandContext, store *history.Store) error {
				a, err := store.GetRun(ctx, args[0])
				if err != nil {
					return err
				}
				b, err := store.GetRun(ctx, args[1])
				if err != nil {
					return err
				}
				aOut, err := store.Outcomes(ctx, a.ID)
				if err != nil {
					return err
				}
				bOut, err := store.Outcomes(ctx, b.ID)
				if err != nil {
					return err
				}

				text, differ, err := history.Diff(a, b, aOut, bOut)
				if err != nil {
					return err
				}
				r := cmdCtx.Renderer
				if !differ {
					r.Success(fmt.Sprintf("runs %s and %s have identical outcomes", a.ID, b.ID))
					return nil
				}
				if r.EffectiveMode() == output.ModeMarkdown {
					r.Println(output.FormatCodeBlock("diff", text))
				} else {
					r.Printf("%s", text)
				}
				return &ExitError{Code: report.ExitFail}
			})
		},
	}
}

// withHistory opens the history database for reading. Unlike a run, it does
// not create the database when it is missing.
func withHistory(cmd *cobra.Command, fn func(context.Context, *CommandContext, *history.Store) error) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	path := cmdCtx.Cfg.History
	if path == "" {
		path = history.DefaultPath
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("no run history at %s (record runs with --history)", path)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := history.Open(ctx, path, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return fn(ctx, cmdCtx, store)
}

func printRuns(r *output.Renderer, runs []*history.Run) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if runs == nil {
			runs = []*history.Run{}
		}
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Runs (%d)", len(runs))))
		r.Println()
		r.Println(runsTable(runs).RenderMarkdown())
		return nil
	default:
		if len(runs) == 0 {
			r.Muted("No runs recorded.")
			return nil
		}
		t := runsTable(runs)
		t.SetStyle(table.StyleLight)
		r.Println(t.Render())
		return nil
	}
}

func runsTable(runs []*history.Run) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Run", "Started", "Database", "Passed", "Failed", "Errored", "Exit"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Database,
			run.Passed,
			run.Failed,
			run.Errored,
			run.ExitCode,
		})
	}
	return t
}
