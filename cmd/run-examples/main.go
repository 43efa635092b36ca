// Package main provides the run-examples CLI, which executes tutorial SQL
// examples against a database and verifies their documented results.
package main

import (
	"os"

	"github.com/leapstack-labs/leapcheck/internal/cli"

	// Register database adapters via init()
	_ "github.com/leapstack-labs/leapcheck/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapcheck/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/leapcheck/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/leapcheck/pkg/adapters/sqlite"
)

func main() {
	os.Exit(cli.Execute())
}
