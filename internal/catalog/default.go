package catalog

import "embed"

// defaultTutorials are used when no catalog path is configured. Files load
// in lexical order, so the numeric prefixes fix the tutorial order.
//
//go:embed tutorials/*.yaml
var defaultTutorials embed.FS

// Default loads the embedded tutorials.
func Default() (*Registry, error) {
	return LoadFS(defaultTutorials, "tutorials")
}
