package lint

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"

	"abstraktor/internal/targets"
)

// Finding is a resolved target line the parser does not see as the start of
// a statement, so the compiler pass will likely miss it.
type Finding struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s:%d: %s target: %s", f.Path, f.Line, f.Kind, f.Message)
}

var statementTypes = map[string]bool{
	"}":                     true,
	"else":                  true,
	"else_clause":           true,
	"declaration":           true,
	"field_declaration":     true,
	"function_definition":   true,
	"type_definition":       true,
	"struct_specifier":      true,
	"union_specifier":       true,
	"enum_specifier":        true,
	"enumerator":            true,
	"class_specifier":       true,
	"namespace_definition":  true,
	"template_declaration":  true,
	"access_specifier":      true,
	"alias_declaration":     true,
	"using_declaration":     true,
	"linkage_specification": true,
}

// Language picks the grammar for path by extension; nil means unsupported.
func Language(path string) *sitter.Language {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".h":
		return c.GetLanguage()
	case ".cc", ".cpp", ".cxx", ".hpp", ".hh", ".hxx":
		return cpp.GetLanguage()
	}
	return nil
}

// Check parses content and reports every target of table whose line does
// not begin a statement, declaration or closing brace. Files in a language
// without a grammar yield no findings.
func Check(ctx context.Context, table *targets.Table, content string) ([]Finding, error) {
	lang := Language(table.Path)
	if lang == nil {
		return nil, nil
	}
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)
	src := []byte(content)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", table.Path, err)
	}
	defer tree.Close()

	starts := lineStarts(content)
	found := map[int][]string{}
	collect(tree.RootNode(), starts, found)

	var findings []Finding
	check := func(kind string, line int) {
		types := found[line]
		for _, t := range types {
			if statementTypes[t] || strings.HasSuffix(t, "_statement") {
				return
			}
		}
		msg := "no statement begins on this line"
		if len(types) > 0 {
			msg = fmt.Sprintf("line begins a %s, not a statement", types[0])
		}
		findings = append(findings, Finding{Path: table.Path, Line: line, Kind: kind, Message: msg})
	}
	for line := range table.TargetsConst {
		check(targets.KindConst.String(), line)
	}
	for line := range table.TargetsBlock {
		check(targets.KindBlock.String(), line)
	}
	for line := range table.TargetsFunction {
		check(targets.KindFunction.String(), line)
	}
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Line != findings[j].Line {
			return findings[i].Line < findings[j].Line
		}
		return findings[i].Kind < findings[j].Kind
	})
	return findings, nil
}

// lineStarts maps each 0-based row to the byte column of its first
// non-space character, or -1 for blank lines.
func lineStarts(content string) []int {
	lines := strings.Split(content, "\n")
	starts := make([]int, len(lines))
	for i, line := range lines {
		starts[i] = strings.IndexFunc(line, func(r rune) bool { return !unicode.IsSpace(r) })
	}
	return starts
}

// collect records, per 1-indexed line, the types of nodes that start at
// the line's first non-space column, outermost first.
func collect(node *sitter.Node, starts []int, found map[int][]string) {
	if node == nil {
		return
	}
	point := node.StartPoint()
	row := int(point.Row)
	if row < len(starts) && starts[row] == int(point.Column) {
		found[row+1] = append(found[row+1], node.Type())
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collect(node.Child(i), starts, found)
	}
}
