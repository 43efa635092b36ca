// Package duckdb provides a DuckDB database adapter for the example runner.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"

	"github.com/marcboeker/go-duckdb"
	"github.com/shopspring/decimal"

	"github.com/leapstack-labs/leapcheck/pkg/adapter"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
	params *Params
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
		params:         &Params{},
	}
}

// DialectName returns the SQL dialect for this adapter.
func (a *Adapter) DialectName() string {
	return "duckdb"
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" as the path for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", cfg.Path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	a.params = params
	return nil
}

// InitSession installs extensions, applies settings and creates secrets.
func (a *Adapter) InitSession(ctx context.Context, s core.Session) error {
	for _, stmt := range a.params.sessionStatements() {
		a.Logger.Debug("duckdb session init", slog.String("sql", redactSecret(stmt)))
		if err := s.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("duckdb session init failed: %w", err)
		}
	}
	return nil
}

// ConvertValue maps go-duckdb specific types onto comparable values.
func (a *Adapter) ConvertValue(v any) any {
	switch val := v.(type) {
	case duckdb.Decimal:
		if val.Value == nil {
			return nil
		}
		return decimal.NewFromBigInt(val.Value, -int32(val.Scale))
	case *big.Int:
		if val == nil {
			return nil
		}
		return decimal.NewFromBigInt(val, 0)
	case duckdb.Interval:
		return fmt.Sprintf("%d months %d days %d microseconds", val.Months, val.Days, val.Micros)
	default:
		return v
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func quoteLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func redactSecret(stmt string) string {
	if strings.Contains(stmt, " SECRET secret_") {
		if i := strings.Index(stmt, "("); i > 0 {
			return stmt[:i] + "(...)"
		}
	}
	return stmt
}

var (
	_ core.Adapter            = (*Adapter)(nil)
	_ core.SessionInitializer = (*Adapter)(nil)
	_ core.ValueConverter     = (*Adapter)(nil)
)
