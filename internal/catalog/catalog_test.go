package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

func example(id string) core.Example {
	return core.Example{
		ID:       id,
		Query:    "SELECT 1 AS one",
		Columns:  []string{"one"},
		Expected: []core.Row{{"one": decimal.NewFromInt(1)}},
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name     string
		examples []core.Example
		errMsg   string
	}{
		{
			name:     "duplicate id",
			examples: []core.Example{example("a"), example("b"), example("a")},
			errMsg:   "duplicate example id",
		},
		{
			name: "empty expectation with query",
			examples: []core.Example{{
				ID: "empty", Query: "SELECT * FROM employees WHERE 1 = 0",
			}},
			errMsg: "expected result is empty",
		},
		{
			name:     "empty id",
			examples: []core.Example{{Title: "Untitled", Setup: []string{"SELECT 1"}}},
			errMsg:   "empty id",
		},
		{
			name:     "nothing to run",
			examples: []core.Example{{ID: "nothing"}},
			errMsg:   "neither setup nor query",
		},
		{
			name: "expect_no_rows with rows",
			examples: []core.Example{func() core.Example {
				ex := example("both")
				ex.ExpectNoRows = true
				return ex
			}()},
			errMsg: "expect_no_rows is set",
		},
		{
			name: "row column not declared",
			examples: []core.Example{{
				ID: "cols", Query: "SELECT 1", Columns: []string{"a"},
				Expected: []core.Row{{"b": 1}},
			}},
			errMsg: `unknown column "b"`,
		},
		{
			name: "order_by not a column",
			examples: []core.Example{func() core.Example {
				ex := example("ord")
				ex.OrderSensitive = true
				ex.OrderBy = []string{"salary"}
				return ex
			}()},
			errMsg: `order_by column "salary"`,
		},
		{
			name:     "expected without query",
			examples: []core.Example{{ID: "setup", Setup: []string{"SELECT 1"}, Expected: []core.Row{{"a": 1}}, Columns: []string{"a"}}},
			errMsg:   "without a query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.examples)
			require.Error(t, err)

			var loadErr *core.RegistryLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNew_ExpectNoRowsAllowsEmpty(t *testing.T) {
	r, err := New([]core.Example{{ID: "none", Query: "SELECT id FROM t WHERE 1 = 0", Columns: []string{"id"}, ExpectNoRows: true}})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_GetAndSelect(t *testing.T) {
	r, err := New([]core.Example{example("a"), example("b"), example("c")})
	require.NoError(t, err)

	got, err := r.Get("b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.ID)

	_, err = r.Get("zzz")
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "zzz", nf.ID)

	sel, err := r.Select([]string{"c", "a"})
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.Equal(t, "a", sel[0].ID, "selection keeps registry order")
	assert.Equal(t, "c", sel[1].ID)

	all, err := r.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = r.Select([]string{"a", "missing"})
	require.ErrorAs(t, err, &nf)
}

func TestDefault(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	examples := r.Examples()
	require.NotEmpty(t, examples)
	assert.Equal(t, "create-employees-table", examples[0].ID, "employees tutorial loads first")

	for _, id := range []string{"insert-sample-data", "count-inactive", "top-3-salaries", "group-having", "left-join-null", "running-total"} {
		_, err := r.Get(id)
		assert.NoError(t, err, id)
	}

	top, _ := r.Get("top-3-salaries")
	assert.True(t, top.OrderSensitive)
	assert.Equal(t, []string{"salary"}, top.OrderBy, "the documented query has no tiebreaker")

	inactive, _ := r.Get("count-inactive")
	assert.Contains(t, inactive.Query, "is_active = FALSE")

	hr, _ := r.Get("hr-staff-status")
	require.Len(t, hr.Expected, 2)
	assert.Equal(t, false, hr.Expected[0]["is_active"])

	running, _ := r.Get("running-total")
	assert.Equal(t, []string{"id"}, running.OrderBy)

	having, _ := r.Get("group-having")
	assert.False(t, having.OrderSensitive)
	require.Len(t, having.Expected, 1)

	none, _ := r.Get("no-large-orders")
	assert.True(t, none.ExpectNoRows)
}

func TestLoad_FilesAndDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`
examples:
  - id: from-yaml
    query: SELECT 1 AS one
    expected: [{one: 1}]
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("## From markdown\n```sql\nSELECT 2 AS two;\n```\nExpected result:\n| two |\n|---|\n| 2 |\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	r, err := Load(Options{Paths: []string{dir}})
	require.NoError(t, err)
	require.Equal(t, 2, r.Len())
	assert.Equal(t, "from-yaml", r.Examples()[0].ID)
	assert.Equal(t, "from-markdown", r.Examples()[1].ID)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))

	dupA := filepath.Join(dir, "a.yaml")
	dupB := filepath.Join(dir, "b.yaml")
	body := []byte("examples:\n  - id: same\n    setup: SELECT 1\n")
	require.NoError(t, os.WriteFile(dupA, body, 0o644))
	require.NoError(t, os.WriteFile(dupB, body, 0o644))

	tests := []struct {
		name   string
		paths  []string
		errMsg string
	}{
		{name: "missing path", paths: []string{filepath.Join(dir, "nope.yaml")}, errMsg: "nope.yaml"},
		{name: "unsupported file", paths: []string{txt}, errMsg: "unsupported catalog format"},
		{name: "duplicate across files", paths: []string{dupA, dupB}, errMsg: "first defined in " + dupA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(Options{Paths: tt.paths})
			require.Error(t, err)
			var loadErr *core.RegistryLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
