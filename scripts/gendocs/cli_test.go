package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapcheck/internal/cli"
)

func TestGenerateCLIDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(dir))

	index, err := os.ReadFile(filepath.Join(dir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), generatedMarker)
	assert.Contains(t, string(index), "`--database-url`")
	assert.Contains(t, string(index), "## Exit Codes")
	assert.Contains(t, string(index), "[`history`](/cli/history)")

	history, err := os.ReadFile(filepath.Join(dir, "history.md"))
	require.NoError(t, err)
	assert.Contains(t, string(history), "run-examples history <subcommand> [options]")
	assert.Contains(t, string(history), "`diff`")
}

func TestCleanExample(t *testing.T) {
	in := "  # List\n  run-examples list\n\n    indented"
	assert.Equal(t, "# List\nrun-examples list\n\n  indented", cleanExample(in))
}

func TestCommandPage_LeafCommand(t *testing.T) {
	root := cli.NewRootCmd()
	var list *cobra.Command
	for _, cmd := range visibleCommands(root) {
		assert.NotEqual(t, "help", cmd.Name())
		if cmd.Name() == "list" {
			list = cmd
		}
	}
	require.NotNil(t, list)

	page := string(commandPage(list))
	assert.Contains(t, page, "# list\n")
	assert.Contains(t, page, "## Examples")
	assert.NotContains(t, page, "## Subcommands")
}
