package targets_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"abstraktor/internal/targets"
)

func TestNextCodeStart(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		from   int
		want   int
		wantOK bool
	}{
		{
			name:   "immediate code",
			lines:  []string{"// comment", "let x = 1;", "let y = 2;"},
			from:   0,
			want:   2,
			wantOK: true,
		},
		{
			name:   "skips empty lines",
			lines:  []string{"// comment", "", "  ", "let x = 1;"},
			from:   0,
			want:   4,
			wantOK: true,
		},
		{
			name:   "closing brace",
			lines:  []string{"// comment", "  // another comment", "}", "let x = 1;"},
			from:   0,
			want:   3,
			wantOK: true,
		},
		{
			name:   "closing brace with trailing comment",
			lines:  []string{"// marker", "\t} // end"},
			from:   1,
			want:   2,
			wantOK: true,
		},
		{
			name:   "only comments",
			lines:  []string{"// comment", "  // another comment", "  /* block comment */"},
			from:   0,
			wantOK: false,
		},
		{
			name:   "from middle",
			lines:  []string{"let a = 1;", "// comment", "", "let x = 1;"},
			from:   1,
			want:   4,
			wantOK: true,
		},
		{
			name:   "at end of file",
			lines:  []string{"let a = 1;", "// comment"},
			from:   1,
			wantOK: false,
		},
		{
			name:   "past end of file",
			lines:  []string{"let a = 1;"},
			from:   5,
			wantOK: false,
		},
		{
			name:   "indented code",
			lines:  []string{"// comment", "    if (condition) {", "        let x = 1;"},
			from:   0,
			want:   2,
			wantOK: true,
		},
		{
			name:   "opening brace and punctuation skipped",
			lines:  []string{"{", " * doc", "#include <x.h>", "(void)x;", "return 0;"},
			from:   0,
			want:   5,
			wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := targets.NextCodeStart(tt.lines, tt.from)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIsCodeStart(t *testing.T) {
	eligible := []string{"x", "int foo = 1;", "   Return", "\tif (a) {", "}", "} // comment", "  }else{"}
	for _, line := range eligible {
		assert.True(t, targets.IsCodeStart(line), "expected %q to start code", line)
	}
	skipped := []string{"", "   ", "\t", "// comment", "/* block */", " * doc line", "{", "{ // open", "#define X", "_private = 1;", "1 + 2;", "(void)0;"}
	for _, line := range skipped {
		assert.False(t, targets.IsCodeStart(line), "expected %q not to start code", line)
	}
}
