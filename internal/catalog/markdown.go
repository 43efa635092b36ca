package catalog

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

var (
	directivePattern = regexp.MustCompile(`^<!--\s*example:(.*?)-->$`)
	expectedPattern  = regexp.MustCompile(`(?i)expected\s+(result|output)`)
)

// tutorialMarkdown parses CommonMark with GFM pipe tables.
var tutorialMarkdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// mdSection accumulates one heading's worth of tutorial text.
type mdSection struct {
	title     string
	line      int
	sql       []string
	directive map[string]string
	table     [][]string
	hasTable  bool
	skip      bool
}

// parseMarkdown extracts examples from a tutorial document. Each level 2 or
// 3 heading that contains a sql code block becomes one example; an "Expected
// Result" table following the SQL turns the last statement into the checked
// query. A directive comment overrides inferred attributes:
//
//	<!-- example: id=top-3-salaries order_by=salary -->
func parseMarkdown(source string, data []byte) ([]core.Example, error) {
	doc := tutorialMarkdown.Parser().Parse(text.NewReader(data))

	var (
		sections  []*mdSection
		cur       *mdSection
		wantTable bool
	)

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			title := nodeText(node, data)
			if node.Level == 2 || node.Level == 3 {
				cur = &mdSection{title: title, line: lineOf(data, node)}
				sections = append(sections, cur)
				wantTable = false
			} else if cur != nil && expectedPattern.MatchString(title) {
				wantTable = true
			}
			return ast.WalkSkipChildren, nil

		case *ast.FencedCodeBlock:
			if cur != nil && strings.EqualFold(string(node.Language(data)), "sql") {
				cur.sql = append(cur.sql, string(segmentsValue(node.Lines(), data)))
			}
			return ast.WalkSkipChildren, nil

		case *ast.HTMLBlock:
			raw := segmentsValue(node.Lines(), data)
			if node.HasClosure() {
				raw = append(raw, node.ClosureLine.Value(data)...)
			}
			if err := applyDirective(cur, source, lineOf(data, node), raw); err != nil {
				return ast.WalkStop, err
			}
			return ast.WalkSkipChildren, nil

		case *ast.RawHTML:
			if err := applyDirective(cur, source, lineOf(data, node.Parent()), segmentsValue(node.Segments, data)); err != nil {
				return ast.WalkStop, err
			}
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph:
			if cur != nil && expectedPattern.MatchString(nodeText(node, data)) {
				wantTable = true
			}
			return ast.WalkContinue, nil

		case *east.Table:
			if cur != nil && wantTable {
				wantTable = false
				cur.hasTable = true
				cur.table = tableCells(node, data)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	var examples []core.Example
	for _, s := range sections {
		if s.skip || len(s.sql) == 0 {
			continue
		}
		ex, err := s.toExample(source)
		if err != nil {
			return nil, &core.RegistryLoadError{Source: source, ExampleID: ex.ID, Reason: fmt.Sprintf("line %d: %v", s.line, err)}
		}
		examples = append(examples, ex)
	}
	return examples, nil
}

// applyDirective records an example directive comment on the current section.
// Other HTML is ignored.
func applyDirective(cur *mdSection, source string, line int, raw []byte) error {
	if cur == nil {
		return nil
	}
	m := directivePattern.FindSubmatch(bytes.TrimSpace(raw))
	if m == nil {
		return nil
	}
	d, err := parseDirective(string(m[1]))
	if err != nil {
		return &core.RegistryLoadError{Source: source, Reason: fmt.Sprintf("line %d: %v", line, err)}
	}
	cur.directive = d
	if _, ok := d["skip"]; ok {
		cur.skip = true
	}
	return nil
}

// tableCells returns the header row followed by the body rows.
func tableCells(table *east.Table, src []byte) [][]string {
	var rows [][]string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, string(util.UnescapePunctuations([]byte(nodeText(cell, src)))))
		}
		rows = append(rows, cells)
	}
	return rows
}

// nodeText concatenates the inline text below n, code spans included.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func segmentsValue(segs *text.Segments, src []byte) []byte {
	var out []byte
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		out = append(out, seg.Value(src)...)
	}
	return out
}

// lineOf returns the 1-based source line where block n starts, or 0 when it
// has no lines.
func lineOf(src []byte, n ast.Node) int {
	if n == nil || n.Type() != ast.TypeBlock || n.Lines().Len() == 0 {
		return 0
	}
	return bytes.Count(src[:n.Lines().At(0).Start], []byte("\n")) + 1
}

func (s *mdSection) toExample(source string) (core.Example, error) {
	ex := core.Example{
		ID:     slugify(s.title),
		Title:  s.title,
		Source: source,
	}
	if id := s.directive["id"]; id != "" {
		ex.ID = id
	}

	var stmts []string
	for _, block := range s.sql {
		stmts = append(stmts, SplitStatements(block)...)
	}

	if s.hasTable && len(stmts) > 0 {
		ex.Setup = stmts[:len(stmts)-1]
		ex.Query = stmts[len(stmts)-1]

		for _, h := range s.table[0] {
			ex.Columns = append(ex.Columns, strings.Trim(h, "`"))
		}
		for _, cells := range s.table[1:] {
			row := core.Row{}
			for j, c := range cells {
				if j >= len(ex.Columns) {
					break
				}
				row[ex.Columns[j]] = markdownCell(c)
			}
			ex.Expected = append(ex.Expected, row)
		}
		// A header-only table documents an empty result.
		ex.ExpectNoRows = len(ex.Expected) == 0
	} else {
		ex.Setup = stmts
	}

	var explicit *bool
	if v, ok := s.directive["order_sensitive"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ex, fmt.Errorf("order_sensitive: %w", err)
		}
		explicit = &b
	}
	if v := s.directive["order_by"]; v != "" {
		for _, c := range strings.Split(v, ",") {
			ex.OrderBy = append(ex.OrderBy, strings.TrimSpace(c))
		}
	}
	if v, ok := s.directive["expect_no_rows"]; ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return ex, fmt.Errorf("expect_no_rows: %w", err)
		}
		ex.ExpectNoRows = b
	}

	applyOrderInference(&ex, explicit)
	return ex, nil
}

// parseDirective reads space separated key=value pairs. A bare key is
// treated as key=true.
func parseDirective(body string) (map[string]string, error) {
	known := map[string]bool{
		"id":              true,
		"order_sensitive": true,
		"order_by":        true,
		"expect_no_rows":  true,
		"skip":            true,
	}
	out := make(map[string]string)
	for _, field := range strings.Fields(body) {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			v = "true"
		}
		if !known[k] {
			return nil, fmt.Errorf("unknown example directive %q", k)
		}
		out[k] = v
	}
	return out, nil
}

// slugify turns a heading into an example id: "Top 3 Salaries" → "top-3-salaries".
func slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
