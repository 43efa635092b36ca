package history

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Diff compares the outcome sequences of two runs. Two runs of the same
// catalog against fresh databases are expected to produce identical
// sequences; any difference is returned as a unified diff.
func Diff(a, b *Run, aOutcomes, bOutcomes []core.ComparisonOutcome) (string, bool, error) {
	ud := difflib.UnifiedDiff{
		A:        outcomeLines(aOutcomes),
		B:        outcomeLines(bOutcomes),
		FromFile: "run " + a.ID,
		ToFile:   "run " + b.ID,
		Context:  2,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", false, fmt.Errorf("failed to diff runs: %w", err)
	}
	return text, text != "", nil
}

// outcomeLines renders one line per example. Durations are left out since
// they never repeat exactly.
func outcomeLines(outcomes []core.ComparisonOutcome) []string {
	lines := make([]string, len(outcomes))
	for i, o := range outcomes {
		var b strings.Builder
		fmt.Fprintf(&b, "%s %s", o.ExampleID, o.Status)
		if o.Note != "" {
			fmt.Fprintf(&b, " note=%q", o.Note)
		}
		if o.Error != "" {
			fmt.Fprintf(&b, " error=%q", o.Error)
		}
		if n := len(o.Mismatches); n > 0 {
			fmt.Fprintf(&b, " mismatches=%d", n)
		}
		b.WriteByte('\n')
		lines[i] = b.String()
	}
	return lines
}
