package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapcheck/internal/cli/output"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the catalogs without touching a database",
		Long: `Load and validate the configured catalogs: unique ids, well-formed expected
results, order_by columns that exist. Nothing is executed.

Exits with status 2 when a catalog is invalid.`,
		Example: `  # Validate a catalog directory
  run-examples validate --catalog docs/tutorial`,
		Args: cobra.NoArgs,
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	reg, err := cmdCtx.LoadRegistry()
	if err != nil {
		return err
	}

	perSource := map[string]int{}
	var sources []string
	for _, ex := range reg.Examples() {
		if _, ok := perSource[ex.Source]; !ok {
			sources = append(sources, ex.Source)
		}
		perSource[ex.Source]++
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		type source struct {
			Path     string `json:"path"`
			Examples int    `json:"examples"`
		}
		out := struct {
			Valid    bool     `json:"valid"`
			Examples int      `json:"examples"`
			Sources  []source `json:"sources"`
		}{Valid: true, Examples: reg.Len()}
		for _, s := range sources {
			out.Sources = append(out.Sources, source{Path: s, Examples: perSource[s]})
		}
		enc := json.NewEncoder(r.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Catalog valid"))
		r.Println()
		for _, s := range sources {
			r.Println(fmt.Sprintf("- `%s`: %d examples", s, perSource[s]))
		}
	default:
		for _, s := range sources {
			r.StatusLine(s, "ok", fmt.Sprintf("%d examples", perSource[s]))
		}
		r.Success(fmt.Sprintf("%d examples in %d catalog(s) are valid", reg.Len(), len(sources)))
	}
	return nil
}
