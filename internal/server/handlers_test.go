package server

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"abstraktor/internal/config"
	"abstraktor/internal/pipeline"
	"abstraktor/internal/shell"
	"abstraktor/internal/targets"
)

type noopRunner struct{}

func (noopRunner) Run(context.Context, shell.Command) error { return nil }

func (noopRunner) Output(context.Context, shell.Command) (string, error) { return "", nil }

func newHandlers(t *testing.T) (*Handlers, *targets.Cache) {
	t.Helper()
	cache, err := targets.NewCache(16)
	require.NoError(t, err)
	p := pipeline.New(config.Default(), noopRunner{}, nil, cache)
	return NewHandlers(p, cache, nil), cache
}

func call(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
}

func text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	content, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return content.Text
}

func TestGetTargetsHandler(t *testing.T) {
	h, cache := newHandlers(t)
	root := t.TempDir()
	path := filepath.Join(root, "log.c")
	require.NoError(t, os.WriteFile(path, []byte("// ABSTRAKTOR_CONST: APPEND\nlog_append(l);\n"), 0o644))

	result, err := h.getTargetsHandler(context.Background(), call("get_targets", map[string]any{"path": root}))
	require.NoError(t, err)
	require.False(t, result.IsError, text(t, result))

	tables, err := targets.Decode(strings.NewReader(text(t, result)), targets.FormatJSON)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, path, tables[0].Path)
	assert.Equal(t, map[int]string{2: "APPEND"}, tables[0].TargetsConst)

	structured, ok := result.StructuredContent.(TargetsResult)
	require.True(t, ok)
	assert.Empty(t, structured.Diagnostics)
	assert.Equal(t, 1, cache.Len())
}

func TestGetTargetsHandler_Errors(t *testing.T) {
	h, _ := newHandlers(t)

	result, err := h.getTargetsHandler(context.Background(), call("get_targets", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)

	result, err = h.getTargetsHandler(context.Background(), call("get_targets", map[string]any{"path": filepath.Join(t.TempDir(), "missing")}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, text(t, result), "Failed to collect targets")
}

func TestScanSourceHandler(t *testing.T) {
	h, _ := newHandlers(t)
	content := "// ABSTRAKTOR_FUNC: r->1\nint f(struct raft *r) {\n  // ABSTRAKTOR_BLOCK_EVENT: r->x\n  return 0;\n}\n"

	result, err := h.scanSourceHandler(context.Background(), call("scan_source", map[string]any{"content": content, "path": "raft.c"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	structured, ok := result.StructuredContent.(TargetsResult)
	require.True(t, ok)
	require.Len(t, structured.Tables, 1)
	assert.Equal(t, "raft.c", structured.Tables[0].Path)
	assert.Equal(t, map[int]targets.Vars{2: {"r": {1}}}, structured.Tables[0].TargetsFunction)
	require.Len(t, structured.Diagnostics, 1)
	assert.Equal(t, 3, structured.Diagnostics[0].Line)
}

func TestScanSourceHandler_DefaultPath(t *testing.T) {
	h, _ := newHandlers(t)

	result, err := h.scanSourceHandler(context.Background(), call("scan_source", map[string]any{"content": ""}))
	require.NoError(t, err)
	structured, ok := result.StructuredContent.(TargetsResult)
	require.True(t, ok)
	require.Len(t, structured.Tables, 1)
	assert.Equal(t, "<input>", structured.Tables[0].Path)
	assert.True(t, structured.Tables[0].Empty())
}

func TestClassifyLineHandler(t *testing.T) {
	h, _ := newHandlers(t)

	result, err := h.classifyLineHandler(context.Background(), call("classify_line", map[string]any{"line": "/* ABSTRAKTOR_BLOCK_EVENT */"}))
	require.NoError(t, err)
	structured, ok := result.StructuredContent.(LineResult)
	require.True(t, ok)
	assert.Equal(t, []MarkerResult{{Kind: "block"}}, structured.Markers)

	result, err = h.classifyLineHandler(context.Background(), call("classify_line", map[string]any{"line": "x = 1;"}))
	require.NoError(t, err)
	structured, ok = result.StructuredContent.(LineResult)
	require.True(t, ok)
	assert.Empty(t, structured.Markers)
	assert.Equal(t, "0 marker(s)", text(t, result))
}
