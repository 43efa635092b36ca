package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

func TestParseYAML_Basic(t *testing.T) {
	src := `
tutorial: employees
examples:
  - id: create
    setup: |
      CREATE TABLE employees (id INT, salary NUMERIC(10,2));
      INSERT INTO employees VALUES (1, 45000.00);
  - id: top
    title: Top salary
    query: SELECT id, salary FROM employees ORDER BY salary DESC LIMIT 1;
    expected:
      - {id: 1, salary: 45000.00}
`
	examples, err := parseYAML("employees.yaml", []byte(src))
	require.NoError(t, err)
	require.Len(t, examples, 2)

	create := examples[0]
	assert.Equal(t, "create", create.ID)
	assert.Equal(t, "employees.yaml", create.Source)
	assert.Len(t, create.Setup, 2)
	assert.False(t, create.HasQuery())

	top := examples[1]
	assert.Equal(t, "SELECT id, salary FROM employees ORDER BY salary DESC LIMIT 1", top.Query)
	assert.Equal(t, []string{"id", "salary"}, top.Columns)
	assert.True(t, top.OrderSensitive)
	assert.Equal(t, []string{"salary"}, top.OrderBy)

	require.Len(t, top.Expected, 1)
	salary, ok := top.Expected[0]["salary"].(decimal.Decimal)
	require.True(t, ok, "numbers decode as decimals, got %T", top.Expected[0]["salary"])
	assert.Equal(t, "45000", salary.String())
}

func TestParseYAML_ScalarTypes(t *testing.T) {
	src := `
examples:
  - id: types
    query: SELECT 1
    expected:
      - {n: null, b: true, s: hello, d: 2024-02-11, q: "42"}
`
	examples, err := parseYAML("t.yaml", []byte(src))
	require.NoError(t, err)

	row := examples[0].Expected[0]
	assert.Nil(t, row["n"])
	assert.Equal(t, true, row["b"])
	assert.Equal(t, "hello", row["s"])
	assert.Equal(t, "2024-02-11", row["d"])
	assert.Equal(t, "42", row["q"], "quoted numbers stay strings")
	assert.Equal(t, []string{"n", "b", "s", "d", "q"}, examples[0].Columns)
}

func TestParseYAML_ListRows(t *testing.T) {
	src := `
examples:
  - id: rows
    query: SELECT a, b FROM t
    columns: [a, b]
    expected:
      - [1, x]
      - [2, y]
`
	examples, err := parseYAML("t.yaml", []byte(src))
	require.NoError(t, err)
	require.Len(t, examples[0].Expected, 2)
	assert.Equal(t, "y", examples[0].Expected[1]["b"])
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		errMsg string
	}{
		{
			name:   "unknown field",
			src:    "examples:\n  - id: a\n    quary: SELECT 1\n",
			errMsg: "invalid YAML",
		},
		{
			name:   "multi statement query",
			src:    "examples:\n  - id: a\n    query: SELECT 1; SELECT 2\n    expected: [{x: 1}]\n",
			errMsg: "single statement",
		},
		{
			name:   "list row without columns",
			src:    "examples:\n  - id: a\n    query: SELECT 1\n    expected:\n      - [1]\n",
			errMsg: "no columns are declared",
		},
		{
			name:   "list row wrong width",
			src:    "examples:\n  - id: a\n    query: SELECT 1\n    columns: [x, y]\n    expected:\n      - [1]\n",
			errMsg: "has 1 values, want 2",
		},
		{
			name:   "nested value",
			src:    "examples:\n  - id: a\n    query: SELECT 1\n    expected:\n      - {x: [1, 2]}\n",
			errMsg: "must be a scalar",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseYAML("bad.yaml", []byte(tt.src))
			require.Error(t, err)

			var loadErr *core.RegistryLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, "bad.yaml", loadErr.Source)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestParseYAML_Empty(t *testing.T) {
	examples, err := parseYAML("empty.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, examples)
}
