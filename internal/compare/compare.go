// Package compare decides whether an execution result matches an example's
// documented result.
package compare

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// DefaultDecimalPlaces is the rounding applied to numbers before comparing.
const DefaultDecimalPlaces = 2

// TieNote explains an ordered mismatch caused by rows whose sort keys tie.
const TieNote = "non-deterministic ordering without tiebreaker"

// limitPattern recognises queries that cut their result short, in which case
// the last group of tied rows may be incomplete.
var limitPattern = regexp.MustCompile(`(?i)\b(limit\s+\d|fetch\s+(first|next)\b|top\s*\(?\s*\d)`)

// Options configures a Comparator.
type Options struct {
	// DecimalPlaces numbers are rounded to before comparison. Zero selects
	// DefaultDecimalPlaces.
	DecimalPlaces int
}

// Comparator compares results. It holds no state between calls.
type Comparator struct {
	places int32
}

// New creates a Comparator.
func New(opts Options) *Comparator {
	places := opts.DecimalPlaces
	if places <= 0 {
		places = DefaultDecimalPlaces
	}
	return &Comparator{places: int32(places)}
}

// Compare uses a default Comparator.
func Compare(ex core.Example, res core.ExecutionResult) core.ComparisonOutcome {
	return New(Options{}).Compare(ex, res)
}

// Compare classifies one example's result:
//   - an execution error is an error, never a fail
//   - setup-only examples pass when their setup succeeded
//   - a different column set fails
//   - ordered examples compare positionally, unordered ones as multisets
func (c *Comparator) Compare(ex core.Example, res core.ExecutionResult) core.ComparisonOutcome {
	out := core.ComparisonOutcome{
		ExampleID: ex.ID,
		Columns:   res.Columns,
		Duration:  res.Duration,
	}

	if res.Err != nil {
		out.Status = core.StatusError
		out.Error = res.Err.Error()
		return out
	}

	if !ex.HasQuery() {
		out.Status = core.StatusPass
		return out
	}

	actual := res.Rows
	columns := ex.Columns
	if len(columns) > 0 || len(res.Columns) > 0 {
		mapping, ok := matchColumns(ex.Columns, res.Columns)
		switch {
		case ok:
			actual = renameColumns(res.Rows, mapping)
			if len(columns) > 0 {
				out.Columns = columns
			}
		case len(ex.Columns) == 0 && ex.ExpectNoRows:
			columns = res.Columns
		default:
			out.Status = core.StatusFail
			out.Note = fmt.Sprintf("expected columns %v, got %v", ex.Columns, res.Columns)
			out.Mismatches = []core.Mismatch{{Kind: core.MismatchColumns, RowIndex: -1}}
			return out
		}
	}

	var mismatches []core.Mismatch
	if ex.OrderSensitive {
		mismatches = c.ordered(columns, ex.Expected, actual)
	} else {
		mismatches = c.multiset(columns, ex.Expected, actual)
	}

	if len(mismatches) == 0 {
		out.Status = core.StatusPass
		return out
	}

	out.Mismatches = mismatches
	if ex.OrderSensitive && c.onlyTies(ex, columns, actual, mismatches) {
		out.Status = core.StatusError
		out.Note = TieNote
		return out
	}

	out.Status = core.StatusFail
	if len(ex.Expected) != len(actual) {
		out.Note = fmt.Sprintf("expected %d rows, got %d", len(ex.Expected), len(actual))
	} else {
		out.Note = fmt.Sprintf("%d of %d rows differ", countRows(mismatches), len(ex.Expected))
	}
	return out
}

// ordered compares row i with row i.
func (c *Comparator) ordered(columns []string, expected, actual []core.Row) []core.Mismatch {
	var out []core.Mismatch
	n := max(len(expected), len(actual))
	for i := 0; i < n; i++ {
		switch {
		case i >= len(actual):
			out = append(out, core.Mismatch{Kind: core.MismatchMissing, RowIndex: i, Expected: expected[i]})
		case i >= len(expected):
			out = append(out, core.Mismatch{Kind: core.MismatchUnexpected, RowIndex: i, Actual: actual[i]})
		case c.rowKey(columns, expected[i]) != c.rowKey(columns, actual[i]):
			out = append(out, core.Mismatch{Kind: core.MismatchDiffers, RowIndex: i, Expected: expected[i], Actual: actual[i]})
		}
	}
	return out
}

// multiset matches rows regardless of position, respecting duplicates.
// Missing rows are reported in expected order, then unexpected rows in
// actual order.
func (c *Comparator) multiset(columns []string, expected, actual []core.Row) []core.Mismatch {
	pending := make(map[string][]int, len(expected))
	for i, row := range expected {
		k := c.rowKey(columns, row)
		pending[k] = append(pending[k], i)
	}

	var unexpected []core.Mismatch
	for i, row := range actual {
		k := c.rowKey(columns, row)
		if idx := pending[k]; len(idx) > 0 {
			pending[k] = idx[1:]
			continue
		}
		unexpected = append(unexpected, core.Mismatch{Kind: core.MismatchUnexpected, RowIndex: i, Actual: row})
	}

	var missing []int
	for _, idx := range pending {
		missing = append(missing, idx...)
	}
	sort.Ints(missing)

	out := make([]core.Mismatch, 0, len(missing)+len(unexpected))
	for _, i := range missing {
		out = append(out, core.Mismatch{Kind: core.MismatchMissing, RowIndex: i, Expected: expected[i]})
	}
	return append(out, unexpected...)
}

// onlyTies reports whether the ordered mismatches are explained by rows
// whose ORDER BY keys tie. Every row must keep its sort key position, and
// each group of equal keys holding a difference must be a real tie: two or
// more rows that are a permutation of the expected ones. The last group of a
// query with a row limit is exempt from both, since the rows it tied with may
// have been cut off.
func (c *Comparator) onlyTies(ex core.Example, columns []string, actual []core.Row, mismatches []core.Mismatch) bool {
	expected := ex.Expected
	if len(ex.OrderBy) == 0 || len(expected) == 0 || len(expected) != len(actual) {
		return false
	}

	differs := make(map[int]bool, len(mismatches))
	for _, m := range mismatches {
		if m.Kind != core.MismatchDiffers {
			return false
		}
		differs[m.RowIndex] = true
	}

	keys := make([]string, len(expected))
	for i := range expected {
		keys[i] = c.rowKey(ex.OrderBy, expected[i])
		if c.rowKey(ex.OrderBy, actual[i]) != keys[i] {
			return false
		}
	}

	truncated := limitPattern.MatchString(ex.Query)
	for start := 0; start < len(keys); {
		end := start + 1
		for end < len(keys) && keys[end] == keys[start] {
			end++
		}

		changed := false
		for i := start; i < end; i++ {
			changed = changed || differs[i]
		}
		cutOff := truncated && end == len(keys)
		if changed && !cutOff {
			if end-start < 2 {
				return false
			}
			if len(c.multiset(columns, expected[start:end], actual[start:end])) > 0 {
				return false
			}
		}
		start = end
	}
	return true
}

func (c *Comparator) rowKey(columns []string, row core.Row) string {
	var b strings.Builder
	for i, col := range columns {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(c.canon(row[col]))
	}
	return b.String()
}

// matchColumns maps actual column names onto expected ones. Names match
// exactly or, failing that, case-insensitively when that is unambiguous.
func matchColumns(expected, actual []string) (map[string]string, bool) {
	if len(expected) != len(actual) {
		return nil, false
	}
	mapping := make(map[string]string, len(actual))
	exact := make(map[string]bool, len(expected))
	for _, e := range expected {
		exact[e] = true
	}
	folded := make(map[string]string, len(expected))
	for _, e := range expected {
		k := strings.ToLower(e)
		if _, dup := folded[k]; dup {
			folded[k] = ""
			continue
		}
		folded[k] = e
	}

	used := make(map[string]bool, len(expected))
	for _, a := range actual {
		target := ""
		if exact[a] {
			target = a
		} else {
			target = folded[strings.ToLower(a)]
		}
		if target == "" || used[target] {
			return nil, false
		}
		used[target] = true
		mapping[a] = target
	}
	return mapping, true
}

func renameColumns(rows []core.Row, mapping map[string]string) []core.Row {
	identity := true
	for from, to := range mapping {
		if from != to {
			identity = false
			break
		}
	}
	if identity {
		return rows
	}
	out := make([]core.Row, len(rows))
	for i, row := range rows {
		r := make(core.Row, len(row))
		for k, v := range row {
			r[mapping[k]] = v
		}
		out[i] = r
	}
	return out
}

func countRows(ms []core.Mismatch) int {
	n := 0
	for _, m := range ms {
		if m.Kind == core.MismatchDiffers {
			n++
		}
	}
	return n
}
