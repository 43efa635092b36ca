package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

var titleCase = cases.Title(language.English)

func writeMarkdown(w io.Writer, s Summary) error {
	var b strings.Builder

	b.WriteString("# Example run report\n\n")
	if s.Meta.RunID != "" {
		fmt.Fprintf(&b, "- **Run:** `%s`\n", s.Meta.RunID)
	}
	if s.Meta.Adapter != "" {
		fmt.Fprintf(&b, "- **Database:** %s", s.Meta.Adapter)
		if s.Meta.Database != "" {
			fmt.Fprintf(&b, " (`%s`)", s.Meta.Database)
		}
		b.WriteString("\n")
	}
	if !s.Meta.StartedAt.IsZero() {
		fmt.Fprintf(&b, "- **Started:** %s\n", s.Meta.StartedAt.UTC().Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&b, "- **Result:** %d examples, %d passed, %d failed, %d errored\n\n",
		s.Total, s.Passed, s.Failed, s.Errored)

	timed := false
	for _, o := range s.Outcomes {
		if o.Duration > 0 {
			timed = true
			break
		}
	}

	results := table.NewWriter()
	if timed {
		results.AppendHeader(table.Row{"#", "Example", "Status", "Duration", "Detail"})
	} else {
		results.AppendHeader(table.Row{"#", "Example", "Status", "Detail"})
	}
	for i, o := range s.Outcomes {
		row := table.Row{i + 1, "`" + o.ExampleID + "`", titleCase.String(o.Status.String())}
		if timed {
			row = append(row, formatDuration(o.Duration))
		}
		results.AppendRow(append(row, strings.ReplaceAll(detail(o), "\n", " ")))
	}
	b.WriteString("## Results\n\n")
	b.WriteString(results.RenderMarkdown())
	b.WriteString("\n")

	var failing []core.ComparisonOutcome
	for _, o := range s.Outcomes {
		if hasRowMismatches(o) {
			failing = append(failing, o)
		}
	}
	if len(failing) > 0 {
		b.WriteString("\n## Differences\n")
		for _, o := range failing {
			fmt.Fprintf(&b, "\n### %s (%s)\n\n", o.ExampleID, o.Status)
			if o.Note != "" {
				fmt.Fprintf(&b, "> %s\n\n", o.Note)
			}
			b.WriteString(mismatchTable(o).RenderMarkdown())
			b.WriteString("\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
