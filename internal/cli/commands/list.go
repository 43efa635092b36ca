package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [example-id...]",
		Short: "List the examples in the catalog",
		Long: `List the examples of the configured catalogs (or the built-in tutorials)
in run order, with how each one is compared.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List the built-in tutorial examples
  run-examples list

  # List examples from a catalog directory as JSON
  run-examples list --catalog docs/tutorial --output json

  # Show two examples
  run-examples list count-inactive top-3-salaries`,
		RunE: runList,
	}

	return cmd
}

// listEntry is the JSON shape of one listed example.
type listEntry struct {
	ID             string   `json:"id"`
	Title          string   `json:"title,omitempty"`
	Source         string   `json:"source,omitempty"`
	SetupCount     int      `json:"setup_statements"`
	HasQuery       bool     `json:"has_query"`
	OrderSensitive bool     `json:"order_sensitive"`
	OrderBy        []string `json:"order_by,omitempty"`
	Columns        []string `json:"columns,omitempty"`
	ExpectedRows   int      `json:"expected_rows"`
}

func runList(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	reg, err := cmdCtx.LoadRegistry()
	if err != nil {
		return err
	}
	examples, err := reg.Select(args)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listJSON(examples, r)
	case output.ModeMarkdown:
		return listMarkdown(examples, r)
	default:
		return listText(examples, r)
	}
}

func comparisonMode(ex core.Example) string {
	switch {
	case !ex.HasQuery():
		return "setup only"
	case ex.OrderSensitive && len(ex.OrderBy) > 0:
		return "ordered by " + strings.Join(ex.OrderBy, ", ")
	case ex.OrderSensitive:
		return "ordered"
	default:
		return "any order"
	}
}

func expectedSummary(ex core.Example) string {
	switch {
	case !ex.HasQuery():
		return "-"
	case ex.ExpectNoRows:
		return "no rows"
	case len(ex.Expected) == 1:
		return "1 row"
	default:
		return fmt.Sprintf("%d rows", len(ex.Expected))
	}
}

// listText outputs examples as a styled table.
func listText(examples []core.Example, r *output.Renderer) error {
	r.Header(1, fmt.Sprintf("Examples (%d total)", len(examples)))
	if len(examples) == 0 {
		r.Muted("No examples found.")
		return nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "ID", "Title", "Compare", "Expected"})
	for i, ex := range examples {
		t.AppendRow(table.Row{i + 1, ex.ID, ex.Title, comparisonMode(ex), expectedSummary(ex)})
	}
	r.Println(t.Render())
	return nil
}

// listMarkdown outputs examples as markdown for agents and scripts.
func listMarkdown(examples []core.Example, r *output.Renderer) error {
	r.Println(output.FormatHeader(1, fmt.Sprintf("Examples (%d total)", len(examples))))
	r.Println()

	source := ""
	for _, ex := range examples {
		if ex.Source != source {
			source = ex.Source
			r.Println(output.FormatHeader(2, source))
			r.Println()
		}
		r.Println(output.FormatHeader(3, ex.ID))
		if ex.Title != "" {
			r.Println(output.FormatKeyValue("title", ex.Title))
		}
		r.Println(output.FormatKeyValue("compare", comparisonMode(ex)))
		r.Println(output.FormatKeyValue("expected", expectedSummary(ex)))
		if ex.HasQuery() {
			r.Println()
			r.Println(output.FormatCodeBlock("sql", ex.Query))
		}
		r.Println()
	}
	return nil
}

// listJSON outputs examples as JSON.
func listJSON(examples []core.Example, r *output.Renderer) error {
	entries := make([]listEntry, 0, len(examples))
	for _, ex := range examples {
		entries = append(entries, listEntry{
			ID:             ex.ID,
			Title:          ex.Title,
			Source:         ex.Source,
			SetupCount:     len(ex.Setup),
			HasQuery:       ex.HasQuery(),
			OrderSensitive: ex.OrderSensitive,
			OrderBy:        ex.OrderBy,
			Columns:        ex.Columns,
			ExpectedRows:   len(ex.Expected),
		})
	}

	enc := json.NewEncoder(r.Writer())
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Count    int         `json:"count"`
		Examples []listEntry `json:"examples"`
	}{Count: len(entries), Examples: entries})
}
