package targets

import "regexp"

const (
	ConstToken    = "ABSTRAKTOR_CONST"
	BlockToken    = "ABSTRAKTOR_BLOCK_EVENT"
	FunctionToken = "ABSTRAKTOR_FUNC"
)

// patterns holds the compiled marker matchers. They are built once per
// Scanner and only read afterwards.
type patterns struct {
	constant *regexp.Regexp
	block    *regexp.Regexp
	function *regexp.Regexp
}

func newPatterns() *patterns {
	return &patterns{
		constant: regexp.MustCompile(ConstToken + `: (\w+)`),
		block:    regexp.MustCompile(BlockToken + `(?:[:\s]*(\w+(?:->\w+)*))?`),
		function: regexp.MustCompile(FunctionToken + `:\s*(\w+(?:->\w+)*(?:\s*,\s*\w+(?:->\w+)*)*)`),
	}
}

// classify returns every marker on line, in function, const, block order.
// The kinds are not mutually exclusive.
func (p *patterns) classify(line string, lineNum int) []Marker {
	var markers []Marker
	if m := p.function.FindStringSubmatch(line); m != nil {
		markers = append(markers, Marker{Kind: KindFunction, Line: lineNum, Payload: m[1], HasPayload: true})
	}
	if m := p.constant.FindStringSubmatch(line); m != nil {
		markers = append(markers, Marker{Kind: KindConst, Line: lineNum, Payload: m[1], HasPayload: true})
	}
	if m := p.block.FindStringSubmatchIndex(line); m != nil {
		marker := Marker{Kind: KindBlock, Line: lineNum}
		if m[2] >= 0 {
			marker.Payload = line[m[2]:m[3]]
			marker.HasPayload = true
		}
		markers = append(markers, marker)
	}
	return markers
}
