package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// yamlCatalog is one tutorial file.
//
//	tutorial: employees
//	examples:
//	  - id: count-inactive
//	    query: SELECT COUNT(*) AS inactive_count FROM employees WHERE status = 'inactive'
//	    expected:
//	      - {inactive_count: 3}
type yamlCatalog struct {
	Tutorial    string        `yaml:"tutorial"`
	Description string        `yaml:"description"`
	Examples    []yamlExample `yaml:"examples"`
}

type yamlExample struct {
	ID             string    `yaml:"id"`
	Title          string    `yaml:"title"`
	Setup          yaml.Node `yaml:"setup"`
	Query          string    `yaml:"query"`
	Columns        []string  `yaml:"columns"`
	Expected       yaml.Node `yaml:"expected"`
	OrderSensitive *bool     `yaml:"order_sensitive"`
	OrderBy        []string  `yaml:"order_by"`
	ExpectNoRows   bool      `yaml:"expect_no_rows"`
}

// parseYAML decodes a YAML catalog. Unknown fields are rejected.
func parseYAML(source string, data []byte) ([]core.Example, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cat yamlCatalog
	if err := dec.Decode(&cat); err != nil && !errors.Is(err, io.EOF) {
		return nil, &core.RegistryLoadError{Source: source, Reason: fmt.Sprintf("invalid YAML: %v", err)}
	}

	examples := make([]core.Example, 0, len(cat.Examples))
	for i := range cat.Examples {
		ye := &cat.Examples[i]
		ex, err := ye.toExample(source)
		if err != nil {
			id := ye.ID
			if id == "" {
				id = fmt.Sprintf("#%d", i+1)
			}
			return nil, &core.RegistryLoadError{Source: source, ExampleID: id, Reason: err.Error()}
		}
		examples = append(examples, ex)
	}
	return examples, nil
}

func (ye *yamlExample) toExample(source string) (core.Example, error) {
	ex := core.Example{
		ID:           strings.TrimSpace(ye.ID),
		Title:        ye.Title,
		Source:       source,
		Columns:      ye.Columns,
		OrderBy:      ye.OrderBy,
		ExpectNoRows: ye.ExpectNoRows,
	}

	setup, err := decodeSetup(&ye.Setup)
	if err != nil {
		return ex, err
	}
	ex.Setup = setup

	if q := SplitStatements(ye.Query); len(q) > 1 {
		return ex, fmt.Errorf("query must be a single statement, found %d", len(q))
	} else if len(q) == 1 {
		ex.Query = q[0]
	}

	cols, rows, err := decodeExpected(&ye.Expected, ye.Columns)
	if err != nil {
		return ex, err
	}
	ex.Columns = cols
	ex.Expected = rows

	applyOrderInference(&ex, ye.OrderSensitive)
	return ex, nil
}

// decodeSetup accepts a script (split on ';') or a list of statements.
func decodeSetup(n *yaml.Node) ([]string, error) {
	switch n.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil, nil
		}
		return SplitStatements(n.Value), nil
	case yaml.SequenceNode:
		var stmts []string
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("setup line %d: expected a SQL string", item.Line)
			}
			stmts = append(stmts, SplitStatements(item.Value)...)
		}
		return stmts, nil
	default:
		return nil, fmt.Errorf("setup line %d: expected a string or list of strings", n.Line)
	}
}

// decodeExpected reads expected rows, either as mappings (column order taken
// from the first row) or as sequences matched against columns.
func decodeExpected(n *yaml.Node, columns []string) ([]string, []core.Row, error) {
	if n.Kind == 0 || n.ShortTag() == "!!null" {
		return columns, nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nil, fmt.Errorf("expected line %d: must be a list of rows", n.Line)
	}

	rows := make([]core.Row, 0, len(n.Content))
	for i, rn := range n.Content {
		row := core.Row{}
		switch rn.Kind {
		case yaml.MappingNode:
			var keys []string
			for j := 0; j+1 < len(rn.Content); j += 2 {
				key := rn.Content[j].Value
				val, err := yamlScalarOrError(rn.Content[j+1])
				if err != nil {
					return nil, nil, fmt.Errorf("expected row %d column %q: %w", i+1, key, err)
				}
				row[key] = val
				keys = append(keys, key)
			}
			if len(columns) == 0 {
				columns = keys
			}
		case yaml.SequenceNode:
			if len(columns) == 0 {
				return nil, nil, fmt.Errorf("expected row %d is a list but no columns are declared", i+1)
			}
			if len(rn.Content) != len(columns) {
				return nil, nil, fmt.Errorf("expected row %d has %d values, want %d", i+1, len(rn.Content), len(columns))
			}
			for j, vn := range rn.Content {
				val, err := yamlScalarOrError(vn)
				if err != nil {
					return nil, nil, fmt.Errorf("expected row %d column %q: %w", i+1, columns[j], err)
				}
				row[columns[j]] = val
			}
		default:
			return nil, nil, fmt.Errorf("expected row %d: must be a mapping or a list", i+1)
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

func yamlScalarOrError(n *yaml.Node) (any, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: value must be a scalar", n.Line)
	}
	return yamlScalar(n)
}
