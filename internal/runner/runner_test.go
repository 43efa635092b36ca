package runner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/internal/compare"
	"github.com/leapstack-labs/leapcheck/internal/report"
	"github.com/leapstack-labs/leapcheck/internal/testutil"
	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"

	_ "github.com/leapstack-labs/leapcheck/pkg/adapters/sqlite"
)

var employeesSetup = core.Example{
	ID: "insert-sample-data",
	Setup: []string{
		"CREATE TABLE employees (id INTEGER PRIMARY KEY, first_name TEXT, salary NUMERIC, is_active BOOLEAN, department TEXT)",
		`INSERT INTO employees VALUES
			(1, 'John', 45000, TRUE, 'IT'),
			(2, 'Jane', 54340, TRUE, 'Marketing'),
			(3, 'Mike', 75020, TRUE, 'IT'),
			(4, 'Sarah', 54340, FALSE, 'HR'),
			(5, 'Tom', 38000, FALSE, 'IT'),
			(7, 'Chris', 36500, FALSE, 'HR')`,
	},
	Query:    "SELECT COUNT(*) AS total FROM employees",
	Columns:  []string{"total"},
	Expected: []core.Row{{"total": 6}},
}

func sqliteOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		AdapterConfig: adapter.Config{Type: "sqlite", Path: ":memory:"},
		Timeout:       5 * time.Second,
		Database:      "sqlite://:memory:",
		Logger:        testutil.NewTestLogger(t),
	}
}

func TestRun_CountInactive(t *testing.T) {
	examples := []core.Example{
		employeesSetup,
		{
			ID:       "count-inactive",
			Query:    "SELECT COUNT(*) AS inactive_count FROM employees WHERE is_active = FALSE",
			Columns:  []string{"inactive_count"},
			Expected: []core.Row{{"inactive_count": 3}},
		},
	}

	sum, err := Run(context.Background(), examples, sqliteOptions(t))
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Passed, "%+v", sum.Outcomes)
	assert.Equal(t, report.ExitPass, sum.ExitCode())
	assert.Equal(t, "sqlite", sum.Meta.Adapter)
	assert.NotEmpty(t, sum.Meta.RunID)
	assert.False(t, sum.Meta.FinishedAt.Before(sum.Meta.StartedAt))
}

func TestRun_TiedSalariesSwapped(t *testing.T) {
	examples := []core.Example{
		employeesSetup,
		{
			ID:             "top-3-salaries",
			Query:          "SELECT id, salary FROM employees ORDER BY salary DESC, id LIMIT 3",
			Columns:        []string{"id", "salary"},
			OrderSensitive: true,
			OrderBy:        []string{"salary"},
			Expected: []core.Row{
				{"id": 3, "salary": 75020},
				{"id": 4, "salary": 54340},
				{"id": 2, "salary": 54340},
			},
		},
	}

	sum, err := Run(context.Background(), examples, sqliteOptions(t))
	require.NoError(t, err)
	require.Len(t, sum.Outcomes, 2)

	// The query breaks the tie on id, so the database returns 2 before 4.
	// Only salary is declared as a sort key, which makes the swap a tie.
	out := sum.Outcomes[1]
	assert.Equal(t, core.StatusError, out.Status)
	assert.Equal(t, compare.TieNote, out.Note)
	assert.Equal(t, report.ExitError, sum.ExitCode())
}

func TestRun_GroupHaving(t *testing.T) {
	query := "SELECT department, COUNT(*) AS n FROM employees GROUP BY department HAVING COUNT(*) > 2"
	groupCols := []string{"department", "n"}

	tests := []struct {
		name     string
		ex       core.Example
		expected core.Status
	}{
		{
			name:     "single row matches",
			ex:       core.Example{ID: "group-having", Query: query, Columns: groupCols, Expected: []core.Row{{"department": "IT", "n": 3}}},
			expected: core.StatusPass,
		},
		{
			name:     "expecting no rows fails",
			ex:       core.Example{ID: "group-having", Query: query, ExpectNoRows: true, Columns: groupCols},
			expected: core.StatusFail,
		},
		{
			name: "duplicate row fails",
			ex: core.Example{ID: "group-having", Query: query, Columns: groupCols, Expected: []core.Row{
				{"department": "IT", "n": 3},
				{"department": "IT", "n": 3},
			}},
			expected: core.StatusFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := Run(context.Background(), []core.Example{employeesSetup, tt.ex}, sqliteOptions(t))
			require.NoError(t, err)
			require.Len(t, sum.Outcomes, 2)
			assert.Equal(t, tt.expected, sum.Outcomes[1].Status, "%+v", sum.Outcomes[1])
		})
	}
}

func TestRun_SetupFailureIsError(t *testing.T) {
	examples := []core.Example{
		{
			ID:    "broken-setup",
			Setup: []string{"INSERT INTO staff VALUES (1)"},
			Query: "SELECT * FROM staff",
		},
		{
			ID:       "still-runs",
			Query:    "SELECT 1 AS one",
			Columns:  []string{"one"},
			Expected: []core.Row{{"one": 1}},
		},
	}

	var seen []string
	opts := sqliteOptions(t)
	opts.OnOutcome = func(o core.ComparisonOutcome) { seen = append(seen, o.ExampleID) }

	sum, err := Run(context.Background(), examples, opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"broken-setup", "still-runs"}, seen)
	assert.Equal(t, core.StatusError, sum.Outcomes[0].Status)
	assert.Contains(t, sum.Outcomes[0].Error, "setup statement 1 failed")
	assert.Equal(t, core.StatusPass, sum.Outcomes[1].Status)
	assert.Equal(t, report.ExitError, sum.ExitCode())
}

func TestRun_Deterministic(t *testing.T) {
	examples := []core.Example{
		employeesSetup,
		{ID: "it", Query: "SELECT first_name FROM employees WHERE department = 'IT'", Columns: []string{"first_name"}, Expected: []core.Row{
			{"first_name": "Tom"}, {"first_name": "John"}, {"first_name": "Mike"},
		}},
		{ID: "wrong", Query: "SELECT COUNT(*) AS n FROM employees", Columns: []string{"n"}, Expected: []core.Row{{"n": 7}}},
	}

	statuses := func() []core.Status {
		sum, err := Run(context.Background(), examples, sqliteOptions(t))
		require.NoError(t, err)
		var out []core.Status
		for _, o := range sum.Outcomes {
			out = append(out, o.Status)
		}
		return out
	}

	first := statuses()
	assert.Equal(t, []core.Status{core.StatusPass, core.StatusPass, core.StatusFail}, first)
	assert.Equal(t, first, statuses())
}

func TestRun_UnknownAdapter(t *testing.T) {
	examples := []core.Example{{ID: "a", Query: "SELECT 1"}, {ID: "b", Query: "SELECT 2"}}

	sum, err := Run(context.Background(), examples, Options{AdapterConfig: adapter.Config{Type: "oracle"}})
	require.Error(t, err)

	var unknown *adapter.UnknownAdapterError
	assert.ErrorAs(t, err, &unknown)
	require.Len(t, sum.Outcomes, 2)
	for _, o := range sum.Outcomes {
		assert.Equal(t, core.StatusError, o.Status)
		assert.Contains(t, o.Error, "not run")
	}
}

type refusingAdapter struct{}

func (refusingAdapter) Connect(context.Context, core.AdapterConfig) error { return nil }
func (refusingAdapter) Close() error                                      { return nil }
func (refusingAdapter) DialectName() string                               { return "refusing" }
func (refusingAdapter) OpenSession(context.Context) (core.Session, error) {
	return nil, errors.New("connection refused")
}

func TestRun_ConnectionFailureReportsEveryExample(t *testing.T) {
	examples := []core.Example{{ID: "a", Query: "SELECT 1"}, {ID: "b", Query: "SELECT 2"}}

	var called int
	sum, err := Run(context.Background(), examples, Options{
		Adapter:   refusingAdapter{},
		OnOutcome: func(core.ComparisonOutcome) { called++ },
	})

	var connErr *core.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "refusing", sum.Meta.Adapter)
	assert.Equal(t, 2, sum.Total)
	assert.Equal(t, 2, sum.Errored)
	assert.Equal(t, 2, called)
	assert.Equal(t, []string{"a", "b"}, []string{sum.Outcomes[0].ExampleID, sum.Outcomes[1].ExampleID})
}
