// cmd/abstraktor/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"abstraktor/internal/config"
	"abstraktor/internal/logging"
	"abstraktor/internal/pipeline"
	"abstraktor/internal/shell"
	"abstraktor/internal/targets"
)

var (
	configPath string
	logLevel   string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "abstraktor",
	Short: "Annotation-driven instrumentation for distributed-system fuzzing",
	Long: `abstraktor finds ABSTRAKTOR_CONST, ABSTRAKTOR_BLOCK_EVENT and ABSTRAKTOR_FUNC
annotations in C/C++ sources and turns them into the targets table the LLVM
pass instruments. It also drives the instrumented build and the Mallory
docker setup.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if verbose {
			loaded.LogLevel = string(logging.LevelDebug)
		}
		level, err := logging.ParseLevel(loaded.LogLevel)
		if err != nil {
			return err
		}
		logger, err = logging.New(level)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./abstraktor.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, error or quiet")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(getTargetsCmd)
	rootCmd.AddCommand(instrumentCmd)
	rootCmd.AddCommand(llvmCmd)
	rootCmd.AddCommand(lintTargetsCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(cleanCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newPipeline wires the pipeline from the loaded config. cache may be nil.
func newPipeline(cache *targets.Cache) *pipeline.Pipeline {
	return pipeline.New(cfg, shell.NewExec(logger), logger, cache)
}
