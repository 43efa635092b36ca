package catalog

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

var (
	orderByPattern   = regexp.MustCompile(`(?i)\border\s+by\b`)
	clauseEndPattern = regexp.MustCompile(`(?i)\b(limit|offset|fetch|for|union|intersect|except)\b`)
	keySuffixPattern = regexp.MustCompile(`(?i)\s+(asc|desc|nulls\s+first|nulls\s+last|collate\s+\S+)\s*$`)
	plainColumn      = regexp.MustCompile(`^(?:[A-Za-z_][A-Za-z0-9_]*\.)?([A-Za-z_][A-Za-z0-9_]*|"[^"]+")$`)
)

// applyOrderInference fills OrderSensitive and OrderBy when the catalog does
// not state them. A query is order sensitive when it ends in a top-level
// ORDER BY clause. OrderBy is only inferred when every sort key is a plain
// column of the result (or a 1-based position); otherwise it stays empty.
func applyOrderInference(ex *core.Example, explicitOrder *bool) {
	keys, hasOrderBy := orderByKeys(ex.Query)

	if explicitOrder != nil {
		ex.OrderSensitive = *explicitOrder
	} else {
		ex.OrderSensitive = hasOrderBy
	}

	if len(ex.OrderBy) > 0 || !ex.OrderSensitive || !hasOrderBy {
		return
	}

	var cols []string
	for _, k := range keys {
		col, ok := resolveKey(k, ex.Columns)
		if !ok {
			return
		}
		cols = append(cols, col)
	}
	ex.OrderBy = cols
}

// orderByKeys returns the raw sort keys of the last top-level ORDER BY.
func orderByKeys(query string) ([]string, bool) {
	top := topLevel(mask(query))

	locs := orderByPattern.FindAllIndex(top, -1)
	if len(locs) == 0 {
		return nil, false
	}
	start := locs[len(locs)-1][1]

	end := len(query)
	if loc := clauseEndPattern.FindIndex(top[start:]); loc != nil {
		end = start + loc[0]
	}
	if i := strings.IndexByte(string(top[start:end]), ';'); i >= 0 {
		end = start + i
	}

	var keys []string
	from := start
	for i := start; i < end; i++ {
		if top[i] == ',' {
			keys = append(keys, strings.TrimSpace(query[from:i]))
			from = i + 1
		}
	}
	keys = append(keys, strings.TrimSpace(query[from:end]))
	return keys, true
}

func resolveKey(key string, columns []string) (string, bool) {
	for {
		trimmed := keySuffixPattern.ReplaceAllString(key, "")
		if trimmed == key {
			break
		}
		key = trimmed
	}

	if pos, err := strconv.Atoi(key); err == nil {
		if pos >= 1 && pos <= len(columns) {
			return columns[pos-1], true
		}
		return "", false
	}

	m := plainColumn.FindStringSubmatch(key)
	if m == nil {
		return "", false
	}
	name := m[1]
	if strings.HasPrefix(name, `"`) {
		name = strings.Trim(name, `"`)
		for _, c := range columns {
			if c == name {
				return c, true
			}
		}
		return "", false
	}
	for _, c := range columns {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}
