// internal/targets/scanner.go
package targets

import "strings"

// Scanner resolves marker comments to instrumentation target lines. The
// compiled patterns are shared read-only, so one Scanner may serve many
// goroutines.
type Scanner struct {
	patterns *patterns
}

// NewScanner compiles the marker patterns.
func NewScanner() *Scanner {
	return &Scanner{patterns: newPatterns()}
}

// Classify returns every marker present on line. lineNum is recorded on the
// returned markers.
func (s *Scanner) Classify(line string, lineNum int) []Marker {
	return s.patterns.classify(line, lineNum)
}

// Scan builds the target table of one file. Markers that resolve to no code
// line before end of file are dropped. Markers whose payload fails to parse
// are skipped and reported as diagnostics; the rest of the file is still
// scanned.
func (s *Scanner) Scan(content, path string) (*Table, []Diagnostic) {
	table := NewTable(path)
	var diagnostics []Diagnostic
	lines := splitLines(content)
	for i, line := range lines {
		for _, marker := range s.patterns.classify(line, i+1) {
			if err := s.apply(table, lines, marker); err != nil {
				diagnostics = append(diagnostics, Diagnostic{
					Path:    path,
					Line:    marker.Line,
					Kind:    marker.Kind.String(),
					Payload: marker.Payload,
					Message: err.Error(),
					Err:     err,
				})
			}
		}
	}
	return table, diagnostics
}

// apply resolves marker and records it in table. A later marker of the same
// kind resolving to the same target line replaces the earlier entry.
func (s *Scanner) apply(table *Table, lines []string, marker Marker) error {
	switch marker.Kind {
	case KindConst:
		target, ok := NextCodeStart(lines, marker.Line)
		if !ok {
			return nil
		}
		table.TargetsConst[target] = marker.Payload
	case KindBlock:
		vars, err := blockVars(marker)
		if err != nil {
			return err
		}
		target, ok := NextCodeStart(lines, marker.Line)
		if !ok {
			return nil
		}
		table.TargetsBlock[target] = vars
	case KindFunction:
		vars, err := ParseVars(marker.Payload)
		if err != nil {
			return err
		}
		target, ok := NextCodeStart(lines, marker.Line)
		if !ok {
			return nil
		}
		table.TargetsFunction[target] = vars
	}
	return nil
}

// blockVars parses a block payload. A block marker without payload maps the
// empty variable name to an empty trace; consumers rely on that sentinel.
// Only the last token of the payload is kept.
func blockVars(marker Marker) (Vars, error) {
	if !marker.HasPayload {
		return Vars{"": []uint32{}}, nil
	}
	parsed, err := ParseVars(marker.Payload)
	if err != nil {
		return nil, err
	}
	name, trace := "", []uint32{}
	for _, match := range varPattern.FindAllStringSubmatch(marker.Payload, -1) {
		name, trace = match[1], parsed[match[1]]
	}
	return Vars{name: trace}, nil
}

// splitLines splits content into lines the way text editors number them: a
// trailing newline does not open an extra line and CRLF endings are trimmed.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
