package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

func sampleSummary() Summary {
	return Build([]core.ComparisonOutcome{
		{ExampleID: "count-inactive", Status: core.StatusPass, Duration: 2 * time.Millisecond},
		{
			ExampleID: "customer-totals",
			Status:    core.StatusFail,
			Columns:   []string{"name", "total_amount"},
			Note:      "1 of 3 rows differ",
			Mismatches: []core.Mismatch{{
				Kind:     core.MismatchDiffers,
				RowIndex: 1,
				Expected: core.Row{"name": "Alice", "total_amount": decimal.RequireFromString("200.50")},
				Actual:   core.Row{"name": "Alice", "total_amount": decimal.RequireFromString("200.25")},
			}},
		},
		{
			ExampleID: "left-join-null",
			Status:    core.StatusError,
			Error:     `query failed [42P01]: relation "orders" does not exist`,
		},
	}, Meta{RunID: "0190-run", Adapter: "postgres", Database: "postgres://app:xxxxx@db/tutorial"})
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, "md": FormatMarkdown, "markdown": FormatMarkdown, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.ErrorContains(t, err, `unknown report format "xml"`)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleSummary(), Options{Format: FormatText}))
	out := buf.String()

	assert.NotContains(t, out, "count-inactive", "passing examples are hidden unless verbose")
	assert.Contains(t, out, "FAIL")
	assert.Contains(t, out, "customer-totals")
	assert.Contains(t, out, "1 of 3 rows differ")
	assert.Contains(t, out, "200.50")
	assert.Contains(t, out, "200.25")
	assert.Contains(t, out, "ERROR")
	assert.Contains(t, out, `relation "orders" does not exist`)
	assert.Contains(t, out, "3 examples: 1 passed, 1 failed, 1 errored")
	assert.NotContains(t, out, "\x1b[", "no ANSI sequences without color")
}

func TestWriteText_Verbose(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleSummary(), Options{Format: FormatText, Verbose: true}))
	out := buf.String()

	assert.Contains(t, out, "PASS")
	assert.Less(t, strings.Index(out, "count-inactive"), strings.Index(out, "customer-totals"))
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleSummary(), Options{Format: FormatMarkdown}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "# Example run report\n"))
	assert.Contains(t, out, "- **Run:** `0190-run`")
	assert.Contains(t, out, "3 examples, 1 passed, 1 failed, 1 errored")
	assert.Contains(t, out, "## Results")
	assert.Contains(t, out, "| Pass |")
	assert.Contains(t, out, "| Fail |")
	assert.Contains(t, out, "| Error |")
	assert.Contains(t, out, "### customer-totals (fail)")
	assert.Contains(t, out, "> 1 of 3 rows differ")

	// Every example appears once in the results table, in run order.
	first := strings.Index(out, "`count-inactive`")
	second := strings.Index(out, "`customer-totals`")
	third := strings.Index(out, "`left-join-null`")
	assert.True(t, first >= 0 && first < second && second < third)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleSummary(), Options{Format: FormatJSON}))

	var got struct {
		Meta     Meta `json:"meta"`
		Total    int  `json:"total"`
		Errored  int  `json:"errored"`
		Outcomes []struct {
			ExampleID  string `json:"example_id"`
			Status     string `json:"status"`
			Mismatches []struct {
				Kind     string         `json:"kind"`
				Expected map[string]any `json:"expected"`
			} `json:"mismatches"`
		} `json:"outcomes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "0190-run", got.Meta.RunID)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 1, got.Errored)
	require.Len(t, got.Outcomes, 3)
	assert.Equal(t, "fail", got.Outcomes[1].Status)
	require.Len(t, got.Outcomes[1].Mismatches, 1)
	assert.Equal(t, "differs", got.Outcomes[1].Mismatches[0].Kind)
	assert.Equal(t, "200.5", got.Outcomes[1].Mismatches[0].Expected["total_amount"])
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "NULL"},
		{decimal.RequireFromString("64340.00"), "64340.00"},
		{decimal.NewFromInt(8), "8"},
		{time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "2024-02-01"},
		{time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC), "2024-02-01 09:30:00"},
		{[]byte("raw"), "raw"},
		{int64(7), "7"},
		{true, "true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in))
	}
}
