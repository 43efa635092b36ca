// Package main generates the markdown CLI reference for run-examples from
// the cobra command tree.
//
// Usage:
//
//	go run ./scripts/gendocs -outdir=docs/cli
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"
)

func main() {
	outDir := flag.String("outdir", "", "output directory (default: docs/cli under the module root)")
	flag.Parse()

	dir := *outDir
	if dir == "" {
		root, err := moduleRoot()
		if err != nil {
			log.Fatalf("gendocs: %v", err)
		}
		dir = filepath.Join(root, "docs", "cli")
	}
	if err := generateCLIDocs(dir); err != nil {
		log.Fatalf("gendocs: %v", err)
	}
}

// moduleRoot is the nearest ancestor of the working directory holding go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above the working directory")
		}
		dir = parent
	}
}
