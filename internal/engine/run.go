package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Run executes one example: its setup statements in order, then its query.
// A failing statement is recorded on the result and the rest of the example
// is skipped. The returned error is non-nil only when the run as a whole
// cannot continue (session lost for good, or ctx cancelled); when it is
// returned with a nil res.Err the example did not run at all.
func (e *Executor) Run(ctx context.Context, ex core.Example) (core.ExecutionResult, error) {
	res := core.ExecutionResult{ExampleID: ex.ID}
	if e.session == nil {
		return res, &core.ConnectionError{Adapter: e.adp.DialectName(), Err: errors.New("session not open")}
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}
	if err := e.recoverSession(ctx); err != nil {
		return res, err
	}

	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	for i, stmt := range ex.Setup {
		if err := e.exec(ctx, stmt); err != nil {
			res.Err = &core.StatementExecutionError{
				ExampleID: ex.ID,
				Phase:     core.PhaseSetup,
				Index:     i,
				Statement: stmt,
				Code:      e.errorCode(err),
				Err:       err,
			}
			e.logger.Debug("setup statement failed", "example", ex.ID, "index", i, "error", err)
			return res, ctx.Err()
		}
	}

	if !ex.HasQuery() {
		return res, nil
	}

	cols, rows, err := e.query(ctx, ex.Query)
	if err != nil {
		res.Err = &core.StatementExecutionError{
			ExampleID: ex.ID,
			Phase:     core.PhaseQuery,
			Statement: ex.Query,
			Code:      e.errorCode(err),
			Err:       err,
		}
		e.logger.Debug("query failed", "example", ex.ID, "error", err)
		return res, ctx.Err()
	}
	res.Columns = cols
	res.Rows = rows
	return res, nil
}

// RunAll runs examples sequentially. The result slice always has one entry
// per example, in order: when the run aborts, the examples that did not get
// to run carry the abort error. The session is released on every path.
func (e *Executor) RunAll(ctx context.Context, examples []core.Example, onResult func(core.ExecutionResult)) (results []core.ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
		if cerr := e.Close(); cerr != nil {
			e.logger.Debug("close failed", "error", cerr)
		}
		for i := len(results); i < len(examples); i++ {
			results = append(results, core.ExecutionResult{
				ExampleID: examples[i].ID,
				Err:       fmt.Errorf("not run: %w", err),
			})
		}
	}()

	if err := e.Open(ctx); err != nil {
		return nil, err
	}

	results = make([]core.ExecutionResult, 0, len(examples))
	for _, ex := range examples {
		res, runErr := e.Run(ctx, ex)
		if runErr != nil && res.Err == nil {
			return results, runErr
		}
		results = append(results, res)
		if onResult != nil {
			onResult(res)
		}
		if runErr != nil {
			return results, runErr
		}
		e.logger.Debug("example executed", "example", ex.ID, "duration", res.Duration, "failed", res.Err != nil)
	}
	return results, nil
}

func (e *Executor) exec(ctx context.Context, stmt string) error {
	stmtCtx, cancel := e.statementContext(ctx)
	defer cancel()

	e.logger.Debug("exec", "sql", stmt)
	if err := e.session.Exec(stmtCtx, stmt); err != nil {
		return e.classify(ctx, stmtCtx, err)
	}
	return nil
}

// query runs stmt and materialises the result. Byte slices become strings
// and driver specific values go through the adapter's converter.
func (e *Executor) query(ctx context.Context, stmt string) ([]string, []core.Row, error) {
	stmtCtx, cancel := e.statementContext(ctx)
	defer cancel()

	e.logger.Debug("query", "sql", stmt)
	rows, err := e.session.Query(stmtCtx, stmt)
	if err != nil {
		return nil, nil, e.classify(ctx, stmtCtx, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get columns: %w", err)
	}
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		if seen[c] {
			return nil, nil, fmt.Errorf("result has duplicate column %q; alias the columns to make them unique", c)
		}
		seen[c] = true
	}

	var out []core.Row
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, e.classify(ctx, stmtCtx, fmt.Errorf("failed to scan row: %w", err))
		}
		row := make(core.Row, len(cols))
		for i, c := range cols {
			row[c] = e.convert(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, e.classify(ctx, stmtCtx, err)
	}
	return cols, out, nil
}

func (e *Executor) convert(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return adapter.ConvertValue(e.adp, v)
}
