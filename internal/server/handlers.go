package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"abstraktor/internal/pipeline"
	"abstraktor/internal/targets"
)

// Handlers serves the targets tools. Scans go through the pipeline's
// aggregator so unchanged files hit the shared cache.
type Handlers struct {
	pipeline   *pipeline.Pipeline
	aggregator *targets.Aggregator
	scanner    *targets.Scanner
	logger     *zap.Logger
}

// NewHandlers creates the tool handlers. cache may be nil.
func NewHandlers(p *pipeline.Pipeline, cache *targets.Cache, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []targets.Option{}
	if cache != nil {
		opts = append(opts, targets.WithCache(cache))
	}
	return &Handlers{
		pipeline:   p,
		aggregator: targets.NewAggregator(opts...),
		scanner:    targets.NewScanner(),
		logger:     logger,
	}
}

// TargetsResult is the structured payload of get_targets.
type TargetsResult struct {
	Tables      []*targets.Table     `json:"tables"`
	Diagnostics []targets.Diagnostic `json:"diagnostics"`
}

// LineResult is the structured payload of classify_line.
type LineResult struct {
	Markers []MarkerResult `json:"markers"`
}

type MarkerResult struct {
	Kind       string `json:"kind"`
	Payload    string `json:"payload"`
	HasPayload bool   `json:"has_payload"`
}

// getTargetsHandler handles requests for the 'get_targets' tool.
func (h *Handlers) getTargetsHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	report, err := h.pipeline.Targets(ctx, path)
	if err != nil {
		return mcp.NewToolResultError("Failed to collect targets: " + err.Error()), nil
	}
	return h.reportResult(report)
}

// scanSourceHandler handles requests for the 'scan_source' tool.
func (h *Handlers) scanSourceHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := request.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path := request.GetString("path", "<input>")

	report, err := h.aggregator.Aggregate(ctx, []targets.Source{{Path: path, Content: content}})
	if err != nil {
		return mcp.NewToolResultError("Failed to scan source: " + err.Error()), nil
	}
	return h.reportResult(report)
}

// classifyLineHandler handles requests for the 'classify_line' tool.
func (h *Handlers) classifyLineHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := request.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := LineResult{Markers: []MarkerResult{}}
	for _, m := range h.scanner.Classify(line, 1) {
		result.Markers = append(result.Markers, MarkerResult{
			Kind:       m.Kind.String(),
			Payload:    m.Payload,
			HasPayload: m.HasPayload,
		})
	}
	return mcp.NewToolResultStructured(result, fmt.Sprintf("%d marker(s)", len(result.Markers))), nil
}

func (h *Handlers) reportResult(report *targets.Report) (*mcp.CallToolResult, error) {
	data, err := pipeline.Encode(report.Tables, targets.FormatJSON)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	diagnostics := report.Diagnostics
	if diagnostics == nil {
		diagnostics = []targets.Diagnostic{}
	}
	h.logger.Debug("targets served",
		zap.Int("files", len(report.Tables)),
		zap.Int("targets", report.Targets()),
		zap.Int("skipped", len(diagnostics)))
	return mcp.NewToolResultStructured(TargetsResult{Tables: report.Tables, Diagnostics: diagnostics}, string(data)), nil
}

// RegisterTools defines all tools on the server and registers their handlers.
func RegisterTools(s *server.MCPServer, h *Handlers) {
	// Tool 1: scan a file or directory tree.
	getTargetsTool := mcp.NewTool("get_targets",
		mcp.WithDescription("Scan a C/C++ file or directory tree for ABSTRAKTOR annotations and return the instrumentation targets per file: constant targets, block event targets and function targets, keyed by the source line the compiler pass instruments. Markers whose variable trace cannot be parsed are skipped and listed as diagnostics."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute path to a source file or to the root of a source tree (e.g., '/home/user/raft/src')")),
	)
	s.AddTool(getTargetsTool, h.getTargetsHandler)

	// Tool 2: scan content that is not on disk.
	scanSourceTool := mcp.NewTool("scan_source",
		mcp.WithDescription("Scan source text passed inline and return its targets table. Use this to check how a set of annotations will resolve before saving the file."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full text of the source file")),
		mcp.WithString("path", mcp.Description("Path recorded in the result (defaults to '<input>')")),
	)
	s.AddTool(scanSourceTool, h.scanSourceHandler)

	// Tool 3: recognize markers on a single line.
	classifyLineTool := mcp.NewTool("classify_line",
		mcp.WithDescription("Report which ABSTRAKTOR markers (const, block, function) a single source line carries and their raw payloads."),
		mcp.WithString("line", mcp.Required(), mcp.Description("One line of source text")),
	)
	s.AddTool(classifyLineTool, h.classifyLineHandler)
}
