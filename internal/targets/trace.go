package targets

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const traceSeparator = "->"

// varPattern matches one `name(->segment)*` token. Segments are accepted as
// any word so that a non-numeric segment surfaces as a TraceError instead of
// being silently truncated.
var varPattern = regexp.MustCompile(`(\w+)((?:->\w+)*)`)

// TraceError reports a trace segment that is not an unsigned 32-bit integer.
type TraceError struct {
	Payload string
	Segment string
	Err     error
}

func (e *TraceError) Error() string {
	return fmt.Sprintf("invalid trace segment %q in %q: %v", e.Segment, e.Payload, e.Err)
}

func (e *TraceError) Unwrap() error {
	return e.Err
}

// ParseVars parses a payload of one or more comma separated `name(->number)*`
// tokens. A name without suffixes maps to an empty, non-nil trace. Repeated
// names keep the last occurrence.
func ParseVars(payload string) (Vars, error) {
	vars := Vars{}
	for _, match := range varPattern.FindAllStringSubmatch(payload, -1) {
		trace, err := parseTrace(payload, match[2])
		if err != nil {
			return nil, err
		}
		vars[match[1]] = trace
	}
	return vars, nil
}

func parseTrace(payload, suffix string) ([]uint32, error) {
	trace := []uint32{}
	for _, segment := range strings.Split(suffix, traceSeparator) {
		if segment == "" {
			continue
		}
		n, err := strconv.ParseUint(segment, 10, 32)
		if err != nil {
			return nil, &TraceError{Payload: payload, Segment: segment, Err: err}
		}
		trace = append(trace, uint32(n))
	}
	return trace, nil
}
