package catalog

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var numericCell = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// yamlScalar converts a YAML scalar into an expected value. Numbers keep
// their literal digits as a decimal so that 54340.00 is not routed through
// float64.
func yamlScalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int", "!!float":
		if d, err := decimal.NewFromString(n.Value); err == nil {
			return d, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		// strings and timestamps keep their literal text
		return n.Value, nil
	}
}

// markdownCell converts a pipe-table cell into an expected value.
func markdownCell(cell string) any {
	cell = strings.TrimSpace(cell)
	cell = strings.Trim(cell, "`")

	switch {
	case strings.EqualFold(cell, "null"):
		return nil
	case strings.EqualFold(cell, "true"):
		return true
	case strings.EqualFold(cell, "false"):
		return false
	case numericCell.MatchString(cell):
		if d, err := decimal.NewFromString(cell); err == nil {
			return d
		}
	case len(cell) >= 2 && (cell[0] == '\'' && cell[len(cell)-1] == '\'' || cell[0] == '"' && cell[len(cell)-1] == '"'):
		return cell[1 : len(cell)-1]
	}
	return strings.ReplaceAll(cell, `\|`, "|")
}
