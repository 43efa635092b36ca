package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/internal/testutil"
	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"

	_ "github.com/leapstack-labs/leapcheck/pkg/adapters/sqlite"
)

func newSQLiteExecutor(t *testing.T) *Executor {
	t.Helper()
	exec, err := New(Config{
		AdapterConfig: adapter.Config{Type: "sqlite", Path: ":memory:"},
		Timeout:       5 * time.Second,
		Logger:        testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	return exec
}

func TestRunAll_SQLiteSharedSession(t *testing.T) {
	examples := []core.Example{
		{
			ID: "create",
			Setup: []string{
				"CREATE TEMP TABLE employees (id INTEGER PRIMARY KEY, name TEXT, status TEXT)",
			},
		},
		{
			ID:    "insert",
			Setup: []string{"INSERT INTO employees VALUES (1, 'Tom', 'inactive'), (2, 'Anna', 'active')"},
			Query: "SELECT COUNT(*) AS n FROM employees",
		},
		{
			ID:    "broken",
			Setup: []string{"INSERT INTO staff VALUES (1)"},
			Query: "SELECT * FROM staff",
		},
		{
			ID:    "after-error",
			Query: "SELECT name FROM employees WHERE status = 'inactive'",
		},
	}

	var order []string
	results, err := newSQLiteExecutor(t).RunAll(context.Background(), examples, func(r core.ExecutionResult) {
		order = append(order, r.ExampleID)
	})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, []string{"create", "insert", "broken", "after-error"}, order)

	assert.NoError(t, results[0].Err)
	assert.Empty(t, results[0].Columns)

	require.NoError(t, results[1].Err)
	assert.Equal(t, []string{"n"}, results[1].Columns)
	assert.EqualValues(t, 2, results[1].Rows[0]["n"], "temp table from an earlier example is visible")

	var stmtErr *core.StatementExecutionError
	require.ErrorAs(t, results[2].Err, &stmtErr)
	assert.Equal(t, core.PhaseSetup, stmtErr.Phase)
	assert.NotEmpty(t, stmtErr.Code)

	require.NoError(t, results[3].Err, "errors stay scoped to their example")
	assert.Equal(t, []core.Row{{"name": "Tom"}}, results[3].Rows)
}

func TestRunAll_Deterministic(t *testing.T) {
	examples := []core.Example{
		{ID: "create", Setup: []string{"CREATE TABLE t (id INTEGER, v TEXT)", "INSERT INTO t VALUES (2, 'b'), (1, 'a')"}},
		{ID: "read", Query: "SELECT id, v FROM t ORDER BY id"},
	}

	first, err := newSQLiteExecutor(t).RunAll(context.Background(), examples, nil)
	require.NoError(t, err)
	second, err := newSQLiteExecutor(t).RunAll(context.Background(), examples, nil)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ExampleID, second[i].ExampleID)
		assert.Equal(t, first[i].Columns, second[i].Columns)
		assert.Equal(t, first[i].Rows, second[i].Rows)
	}
}
