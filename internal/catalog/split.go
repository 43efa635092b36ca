package catalog

import "strings"

// SplitStatements splits a SQL script on top-level semicolons. Semicolons
// inside literals, quoted identifiers, dollar-quoted bodies and comments do
// not split. Empty and comment-only statements are dropped; the trailing
// semicolon is not part of a statement.
func SplitStatements(script string) []string {
	masked := mask(script)

	var stmts []string
	start := 0
	emit := func(end int) {
		if strings.TrimSpace(string(masked[start:end])) != "" {
			stmts = append(stmts, strings.TrimSpace(script[start:end]))
		}
		start = end + 1
	}
	for i, c := range masked {
		if c == ';' {
			emit(i)
		}
	}
	if start < len(script) {
		emit(len(script))
	}
	return stmts
}
