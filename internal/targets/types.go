// internal/targets/types.go
package targets

import "fmt"

// Kind discriminates the three marker variants.
type Kind int

const (
	KindConst Kind = iota + 1
	KindBlock
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindBlock:
		return "block"
	case KindFunction:
		return "function"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Marker is one annotation found on a source line. Payload is the raw text
// captured after the marker token; HasPayload distinguishes an absent payload
// from an empty one.
type Marker struct {
	Kind       Kind
	Line       int // 1-indexed line the marker was found on
	Payload    string
	HasPayload bool
}

// Vars maps a variable name to its ordered trace (field/argument path).
type Vars map[string][]uint32

// Table is the per-file instrumentation target table, keyed by resolved
// target line.
type Table struct {
	Path            string         `json:"path" yaml:"path"`
	TargetsConst    map[int]string `json:"targets_const" yaml:"targets_const"`
	TargetsBlock    map[int]Vars   `json:"targets_block" yaml:"targets_block"`
	TargetsFunction map[int]Vars   `json:"targets_function" yaml:"targets_function"`
}

// NewTable returns an empty table for path.
func NewTable(path string) *Table {
	return &Table{
		Path:            path,
		TargetsConst:    map[int]string{},
		TargetsBlock:    map[int]Vars{},
		TargetsFunction: map[int]Vars{},
	}
}

// Empty reports whether no marker resolved in the file.
func (t *Table) Empty() bool {
	return len(t.TargetsConst) == 0 && len(t.TargetsBlock) == 0 && len(t.TargetsFunction) == 0
}

// Count returns the total number of resolved targets.
func (t *Table) Count() int {
	return len(t.TargetsConst) + len(t.TargetsBlock) + len(t.TargetsFunction)
}

// Source is one (content, path) input pair.
type Source struct {
	Path    string
	Content string
}

// Diagnostic records a marker that was skipped because its payload failed to parse.
type Diagnostic struct {
	Path    string `json:"path" yaml:"path"`
	Line    int    `json:"line" yaml:"line"`
	Kind    string `json:"kind" yaml:"kind"`
	Payload string `json:"payload" yaml:"payload"`
	Message string `json:"message" yaml:"message"`
	Err     error  `json:"-" yaml:"-"`
}

func (d Diagnostic) Error() string {
	return d.String()
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: skipped %s marker %q: %s", d.Path, d.Line, d.Kind, d.Payload, d.Message)
}

// Report is the result of scanning a batch of sources.
type Report struct {
	Tables      []*Table
	Diagnostics []Diagnostic
}

// Targets returns the total number of resolved targets across all tables.
func (r *Report) Targets() int {
	total := 0
	for _, t := range r.Tables {
		total += t.Count()
	}
	return total
}
