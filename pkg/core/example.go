package core

import (
	"sort"
	"strings"
)

// Row is one record of a result set, keyed by column name.
type Row map[string]any

// Example is a snippet plus its documented expected result, treated as one
// testable unit.
type Example struct {
	// ID is unique and stable across the registry.
	ID string `json:"id"`

	// Title is the human readable heading the example was taken from.
	Title string `json:"title,omitempty"`

	// Source is the catalog file (or embedded tutorial) that defined the example.
	Source string `json:"source,omitempty"`

	// Setup statements run in order before the query.
	Setup []string `json:"setup,omitempty"`

	// Query is the single statement whose result is checked. Empty for
	// setup-only examples.
	Query string `json:"query,omitempty"`

	// Columns is the expected column set in declared order.
	Columns []string `json:"columns,omitempty"`

	// Expected rows, in the order the tutorial documents them.
	Expected []Row `json:"expected,omitempty"`

	// OrderSensitive selects positional comparison instead of multiset.
	OrderSensitive bool `json:"order_sensitive"`

	// OrderBy names the result columns the query sorts on. Used to recognise
	// rows that only differ in position because the sort keys tie.
	OrderBy []string `json:"order_by,omitempty"`

	// ExpectNoRows states that an empty result is the documented outcome.
	ExpectNoRows bool `json:"expect_no_rows,omitempty"`
}

// HasQuery reports whether the example defines a checked query.
func (e *Example) HasQuery() bool {
	return strings.TrimSpace(e.Query) != ""
}

// ColumnSet returns the expected columns sorted by name.
func (e *Example) ColumnSet() []string {
	cols := append([]string(nil), e.Columns...)
	sort.Strings(cols)
	return cols
}
