package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/leapcheck/internal/cli"
	"github.com/leapstack-labs/leapcheck/internal/cli/config"
)

var envVars = [][]string{
	{"DATABASE_URL", "Database URL"},
	{"TIMEOUT", "Per-statement timeout in seconds"},
	{"CATALOGS", "Comma separated catalog paths"},
	{"ONLY", "Comma separated example ids"},
	{"TARGET__PASSWORD", "Password of the target block"},
	{"STORAGE__S3__REGION", "Region for s3:// reports"},
}

var exitCodes = [][]string{
	{"0", "Every example passed"},
	{"1", "At least one example failed and none errored"},
	{"2", "An example errored, or the run could not start (catalog, connection, flags)"},
}

// generateCLIDocs writes index.md for the root command plus one page per
// visible subcommand.
func generateCLIDocs(outDir string) error {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	pages := map[string][]byte{"index.md": indexPage(root)}
	for _, cmd := range visibleCommands(root) {
		pages[cmd.Name()+".md"] = commandPage(cmd)
	}

	for name, body := range pages {
		if err := os.WriteFile(filepath.Join(outDir, name), body, 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		log.Printf("wrote %s", filepath.Join(outDir, name))
	}
	return nil
}

func visibleCommands(parent *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, cmd := range parent.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "completion" {
			continue
		}
		out = append(out, cmd)
	}
	return out
}

func indexPage(root *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for run-examples")
	w.GeneratedMarker()
	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)

	w.Header(2, "Usage")
	w.CodeBlock("bash", "run-examples [--catalog <path>] [--only <id>] --database-url <url>")
	if root.Example != "" {
		w.CodeBlock("bash", cleanExample(root.Example))
	}

	w.Header(2, "Run Options")
	writeFlagsTable(w, root.LocalNonPersistentFlags())
	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Commands")
	var cmds [][]string
	for _, cmd := range visibleCommands(root) {
		cmds = append(cmds, []string{
			fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name()),
			cleanDescription(cmd.Short),
		})
	}
	w.Table([]string{"Command", "Description"}, cmds)

	w.Header(2, "Environment Variables")
	w.Paragraph(fmt.Sprintf("Settings can also be set as %s variables; a double underscore separates nested keys. Flags win over the environment, and the environment wins over %s.",
		InlineCode(config.EnvPrefix+"*"), InlineCode(config.ConfigFileNames[0])))
	vars := make([][]string, len(envVars))
	for i, v := range envVars {
		vars[i] = []string{InlineCode(config.EnvPrefix + v[0]), v[1]}
	}
	w.Table([]string{"Variable", "Description"}, vars)

	w.Header(2, "Exit Codes")
	codes := make([][]string, len(exitCodes))
	for i, c := range exitCodes {
		codes[i] = []string{InlineCode(c[0]), c[1]}
	}
	w.Table([]string{"Code", "Meaning"}, codes)
	return w.Bytes()
}

func commandPage(cmd *cobra.Command) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()
	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	if subs := visibleCommands(cmd); len(subs) > 0 {
		w.CodeBlock("bash", "run-examples "+cmd.Name()+" <subcommand> [options]")
		w.Header(2, "Subcommands")
		rows := make([][]string, len(subs))
		for i, sub := range subs {
			rows[i] = []string{InlineCode(sub.Name()), cleanDescription(sub.Short)}
		}
		w.Table([]string{"Subcommand", "Description"}, rows)
	} else {
		w.CodeBlock("bash", cmd.UseLine())
	}

	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}
	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", cleanExample(cmd.Example))
	}
	return w.Bytes()
}

func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		short, def := "", f.DefValue
		if f.Shorthand != "" {
			short = "-" + f.Shorthand
		}
		if def != "" && f.Value.Type() == "string" {
			def = InlineCode(def)
		}
		rows = append(rows, []string{InlineCode("--" + f.Name), short, def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Short", "Default", "Description"}, rows)
}

// cleanExample strips the indentation shared by every non-blank line.
func cleanExample(example string) string {
	lines := strings.Split(strings.TrimRight(example, " \t\n"), "\n")
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		switch {
		case first:
			prefix, first = lead, false
		case !strings.HasPrefix(lead, prefix):
			prefix = commonPrefix(prefix, lead)
		}
	}
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func commonPrefix(a, b string) string {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return a[:n]
}
