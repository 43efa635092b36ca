// Package catalog holds the example registry: the ordered, immutable set of
// tutorial snippets and their documented results. Examples come from YAML
// catalogs, Markdown tutorials, or the embedded default tutorials.
package catalog

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Registry is an ordered set of examples with unique ids. It is built once
// and never mutated.
type Registry struct {
	examples []core.Example
	index    map[string]int
}

// New validates examples and builds a registry preserving their order.
func New(examples []core.Example) (*Registry, error) {
	r := &Registry{
		examples: make([]core.Example, 0, len(examples)),
		index:    make(map[string]int, len(examples)),
	}
	for _, ex := range examples {
		if err := validate(&ex); err != nil {
			return nil, err
		}
		if prev, ok := r.index[ex.ID]; ok {
			reason := "duplicate example id"
			if src := r.examples[prev].Source; src != "" {
				reason = fmt.Sprintf("duplicate example id (first defined in %s)", src)
			}
			return nil, &core.RegistryLoadError{Source: ex.Source, ExampleID: ex.ID, Reason: reason}
		}
		r.index[ex.ID] = len(r.examples)
		r.examples = append(r.examples, ex)
	}
	return r, nil
}

func validate(ex *core.Example) error {
	fail := func(format string, args ...any) error {
		return &core.RegistryLoadError{Source: ex.Source, ExampleID: ex.ID, Reason: fmt.Sprintf(format, args...)}
	}

	if strings.TrimSpace(ex.ID) == "" {
		return &core.RegistryLoadError{Source: ex.Source, Reason: fmt.Sprintf("example %q has an empty id", ex.Title)}
	}
	if len(ex.Setup) == 0 && !ex.HasQuery() {
		return fail("example has neither setup nor query")
	}
	if ex.HasQuery() && len(ex.Expected) == 0 && !ex.ExpectNoRows {
		return fail("expected result is empty but the query is not; set expect_no_rows if an empty result is intended")
	}
	if !ex.HasQuery() && (len(ex.Expected) > 0 || ex.ExpectNoRows) {
		return fail("expected result given without a query")
	}
	if ex.ExpectNoRows && len(ex.Expected) > 0 {
		return fail("expect_no_rows is set but expected rows are given")
	}

	seen := make(map[string]bool, len(ex.Columns))
	for _, c := range ex.Columns {
		if seen[c] {
			return fail("column %q is declared twice", c)
		}
		seen[c] = true
	}
	for i, row := range ex.Expected {
		if len(row) != len(ex.Columns) {
			return fail("expected row %d has %d columns, want %d", i+1, len(row), len(ex.Columns))
		}
		for c := range row {
			if !seen[c] {
				return fail("expected row %d has unknown column %q", i+1, c)
			}
		}
	}
	for _, c := range ex.OrderBy {
		if !seen[c] {
			return fail("order_by column %q is not an expected column", c)
		}
	}
	return nil
}

// Examples returns all examples in registry order. The slice is shared and
// must not be modified.
func (r *Registry) Examples() []core.Example {
	return r.examples
}

// Len returns the number of examples.
func (r *Registry) Len() int {
	return len(r.examples)
}

// Get returns the example with the given id.
func (r *Registry) Get(id string) (core.Example, error) {
	i, ok := r.index[id]
	if !ok {
		return core.Example{}, &core.NotFoundError{ID: id}
	}
	return r.examples[i], nil
}

// Select returns the examples named by ids, in registry order. An empty ids
// list selects everything.
func (r *Registry) Select(ids []string) ([]core.Example, error) {
	if len(ids) == 0 {
		return r.examples, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.index[id]; !ok {
			return nil, &core.NotFoundError{ID: id}
		}
		want[id] = true
	}
	out := make([]core.Example, 0, len(want))
	for _, ex := range r.examples {
		if want[ex.ID] {
			out = append(out, ex)
		}
	}
	return out, nil
}

// Options configures Load.
type Options struct {
	// Paths are catalog files or directories. Empty loads the embedded
	// default tutorials.
	Paths []string

	Logger *slog.Logger
}

// Load reads every catalog source and builds the registry.
func Load(opts Options) (*Registry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if len(opts.Paths) == 0 {
		logger.Debug("loading embedded tutorials")
		return Default()
	}

	var files []string
	for _, p := range opts.Paths {
		found, err := catalogFiles(p)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	var all []core.Example
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, &core.RegistryLoadError{Source: f, Reason: err.Error()}
		}
		examples, err := parseSource(f, data)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded catalog", slog.String("path", f), slog.Int("examples", len(examples)))
		all = append(all, examples...)
	}
	return New(all)
}

// LoadFS loads every catalog file under dir in fsys, in lexical order.
func LoadFS(fsys fs.FS, dir string) (*Registry, error) {
	var names []string
	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isCatalogFile(path) {
			names = append(names, path)
		}
		return nil
	})
	if err != nil {
		return nil, &core.RegistryLoadError{Source: dir, Reason: err.Error()}
	}
	sort.Strings(names)

	var all []core.Example
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, &core.RegistryLoadError{Source: name, Reason: err.Error()}
		}
		examples, err := parseSource(name, data)
		if err != nil {
			return nil, err
		}
		all = append(all, examples...)
	}
	return New(all)
}

// catalogFiles expands a path into the catalog files it names.
func catalogFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &core.RegistryLoadError{Source: path, Reason: err.Error()}
	}
	if !info.IsDir() {
		if !isCatalogFile(path) {
			return nil, &core.RegistryLoadError{Source: path, Reason: "unsupported catalog format (want .yaml, .yml or .md)"}
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && isCatalogFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, &core.RegistryLoadError{Source: path, Reason: err.Error()}
	}
	return files, nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".md", ".markdown":
		return true
	}
	return false
}

func parseSource(name string, data []byte) ([]core.Example, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		return parseMarkdown(name, data)
	default:
		return parseYAML(name, data)
	}
}
