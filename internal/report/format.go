package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Format selects how a summary is rendered.
type Format string

// Formats.
const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts text, markdown (or md) and json.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown report format %q (expected text, markdown or json)", s)
	}
}

// Options controls rendering.
type Options struct {
	Format Format
	// Color enables ANSI styling in the text format.
	Color bool
	// Verbose lists passing examples in the text format too.
	Verbose bool
}

// Write renders the summary to w.
func Write(w io.Writer, s Summary, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, s)
	case FormatMarkdown:
		return writeMarkdown(w, s)
	case FormatText, "":
		return writeText(w, s, opts)
	default:
		return fmt.Errorf("unknown report format %q", opts.Format)
	}
}

func writeJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// mismatchTable lays out expected rows with a "-" marker and actual rows with
// "+", one line per row.
func mismatchTable(o core.ComparisonOutcome) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := table.Row{"row", ""}
	for _, c := range o.Columns {
		header = append(header, c)
	}
	t.AppendHeader(header)

	line := func(index int, marker string, r core.Row) {
		row := table.Row{index, marker}
		for _, c := range o.Columns {
			row = append(row, FormatValue(r[c]))
		}
		t.AppendRow(row)
	}
	for _, m := range o.Mismatches {
		switch m.Kind {
		case core.MismatchDiffers:
			line(m.RowIndex, "-", m.Expected)
			line(m.RowIndex, "+", m.Actual)
		case core.MismatchMissing:
			line(m.RowIndex, "-", m.Expected)
		case core.MismatchUnexpected:
			line(m.RowIndex, "+", m.Actual)
		}
	}
	return t
}

func hasRowMismatches(o core.ComparisonOutcome) bool {
	for _, m := range o.Mismatches {
		if m.Kind != core.MismatchColumns {
			return true
		}
	}
	return false
}

// detail is the one-line explanation shown next to a non-passing example.
func detail(o core.ComparisonOutcome) string {
	switch {
	case o.Error != "" && o.Note != "":
		return o.Note + ": " + o.Error
	case o.Error != "":
		return o.Error
	default:
		return o.Note
	}
}

// FormatValue renders a cell the way reports show it.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case decimal.Decimal:
		if val.Exponent() < 0 {
			return val.StringFixed(-val.Exponent())
		}
		return val.String()
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format(time.DateOnly)
		}
		return val.Format("2006-01-02 15:04:05.999999999")
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "0s"
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}
