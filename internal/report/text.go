package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

type textStyles struct {
	pass  lipgloss.Style
	fail  lipgloss.Style
	err   lipgloss.Style
	id    lipgloss.Style
	muted lipgloss.Style
	bold  lipgloss.Style
}

func newTextStyles(w io.Writer, color bool) textStyles {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	label := r.NewStyle().Bold(true).Width(7)
	return textStyles{
		pass:  label.Foreground(lipgloss.Color("2")),
		fail:  label.Foreground(lipgloss.Color("1")),
		err:   label.Foreground(lipgloss.Color("3")),
		id:    r.NewStyle().Bold(true),
		muted: r.NewStyle().Foreground(lipgloss.Color("8")),
		bold:  r.NewStyle().Bold(true),
	}
}

func (st textStyles) label(s core.Status) string {
	switch s {
	case core.StatusPass:
		return st.pass.Render("PASS")
	case core.StatusFail:
		return st.fail.Render("FAIL")
	default:
		return st.err.Render("ERROR")
	}
}

func writeText(w io.Writer, s Summary, opts Options) error {
	st := newTextStyles(w, opts.Color)

	for _, o := range s.Outcomes {
		if o.Status == core.StatusPass && !opts.Verbose {
			continue
		}
		line := fmt.Sprintf("%s %s %s", st.label(o.Status), st.id.Render(o.ExampleID),
			st.muted.Render("("+formatDuration(o.Duration)+")"))
		if d := detail(o); d != "" {
			line += "\n        " + d
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if hasRowMismatches(o) {
			t := mismatchTable(o)
			if _, err := fmt.Fprintln(w, indent(t.Render(), "        ")); err != nil {
				return err
			}
		}
	}

	if len(s.Outcomes) > 0 {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s %d examples: %s, %s, %s %s\n",
		st.bold.Render("Summary:"),
		s.Total,
		st.pass.UnsetWidth().Render(fmt.Sprintf("%d passed", s.Passed)),
		st.fail.UnsetWidth().Render(fmt.Sprintf("%d failed", s.Failed)),
		st.err.UnsetWidth().Render(fmt.Sprintf("%d errored", s.Errored)),
		st.muted.Render("in "+formatDuration(s.Duration())),
	)
	return err
}

func indent(s, prefix string) string {
	out := make([]byte, 0, len(s)+len(prefix)*8)
	out = append(out, prefix...)
	for i := 0; i < len(s); i++ {
		out = append(out, s[i])
		if s[i] == '\n' && i < len(s)-1 {
			out = append(out, prefix...)
		}
	}
	return string(out)
}
