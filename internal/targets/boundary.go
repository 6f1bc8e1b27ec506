package targets

import (
	"strings"
	"unicode"
)

// IsCodeStart reports whether line begins a statement an instrumentation
// point can land on: after leading whitespace it starts with an ASCII letter
// or a closing brace. Blank lines, comments, opening braces and other
// punctuation never qualify.
func IsCodeStart(line string) bool {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	if trimmed == "" {
		return false
	}
	c := trimmed[0]
	return c == '}' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// NextCodeStart scans lines forward from the zero-based index from and returns
// the 1-indexed number of the first code-start line. ok is false when the
// scan reaches the end of the file first.
func NextCodeStart(lines []string, from int) (line int, ok bool) {
	if from < 0 {
		from = 0
	}
	for i := from; i < len(lines); i++ {
		if IsCodeStart(lines[i]) {
			return i + 1, true
		}
	}
	return 0, false
}
