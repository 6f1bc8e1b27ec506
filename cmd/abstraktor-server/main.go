package main

import (
	"flag"
	"log"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"abstraktor/internal/config"
	"abstraktor/internal/logging"
	"abstraktor/internal/pipeline"
	handlers "abstraktor/internal/server"
	"abstraktor/internal/shell"
	"abstraktor/internal/targets"
)

func main() {
	// CLI flags
	mode := flag.String("mode", "stdio", "Transport mode: stdio or sse")
	addr := flag.String("addr", ":8080", "HTTP listen address for SSE")
	path := flag.String("path", "/mcp/sse", "HTTP path for SSE connections")
	configPath := flag.String("config", "", "Config file (default: ./abstraktor.yaml when present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid log level: %v", err)
	}
	// Logs go to stderr, so they never mix with the stdio transport.
	logger, err := logging.New(level)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cache, err := targets.NewCache(cfg.CacheSize)
	if err != nil {
		logger.Fatal("failed to create cache", zap.Error(err))
	}
	p := pipeline.New(cfg, shell.NewExec(logger), logger, cache)

	// Create a new MCP server
	s := server.NewMCPServer(
		"Abstraktor Targets",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	// Register all tools and their corresponding handlers
	handlers.RegisterTools(s, handlers.NewHandlers(p, cache, logger))

	switch *mode {
	case "stdio":
		if err := server.ServeStdio(s); err != nil {
			logger.Error("server error", zap.Error(err))
		}
	case "sse":
		sseServer := server.NewSSEServer(s)

		// A path like "/mcp/sse" gets its message handler at "/mcp/message";
		// any other path gets "/message" appended.
		ssePath := *path
		messagePath := strings.Replace(ssePath, "/sse", "/message", 1)
		if messagePath == ssePath {
			messagePath = strings.TrimRight(ssePath, "/") + "/message"
		}

		http.Handle(ssePath, sseServer.SSEHandler())
		http.Handle(messagePath, sseServer.MessageHandler())

		logger.Info("starting SSE server",
			zap.String("addr", *addr),
			zap.String("sse", ssePath),
			zap.String("message", messagePath))
		if err := http.ListenAndServe(*addr, nil); err != nil {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	default:
		logger.Fatal("unknown mode", zap.String("mode", *mode))
	}
}
