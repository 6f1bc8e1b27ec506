package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"abstraktor/internal/pipeline"
	"abstraktor/internal/source"
	"abstraktor/internal/targets"
)

var (
	targetsPath    string
	targetsOutput  string
	targetsFormat  string
	targetsStrict  bool
	targetsWorkers int
	targetsWatch   bool
)

var getTargetsCmd = &cobra.Command{
	Use:   "get-targets",
	Short: "Extract instrumentation targets from annotated sources",
	Long: `Scans a file or every C/C++ file under a directory and writes the targets
table: one entry per file with its constant, block event and function targets.

Markers whose variable trace cannot be parsed are skipped with a warning,
unless --strict is set.

Example:
  abstraktor get-targets --path ./raft/src --output targets.json
  abstraktor get-targets --path ./raft/src --format yaml --watch`,
	RunE: runGetTargets,
}

func init() {
	getTargetsCmd.Flags().StringVarP(&targetsPath, "path", "p", "", "Source file or directory (required)")
	getTargetsCmd.Flags().StringVarP(&targetsOutput, "output", "o", "", "Output file (default: stdout)")
	getTargetsCmd.Flags().StringVar(&targetsFormat, "format", "", "Output format: json or yaml (default: from output extension)")
	getTargetsCmd.Flags().BoolVar(&targetsStrict, "strict", false, "Fail on the first unparsable marker")
	getTargetsCmd.Flags().IntVar(&targetsWorkers, "workers", 0, "Files scanned concurrently (default: config)")
	getTargetsCmd.Flags().BoolVar(&targetsWatch, "watch", false, "Rescan when sources change")
	_ = getTargetsCmd.MarkFlagRequired("path")
}

func runGetTargets(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = targetsStrict
	}
	if targetsWorkers > 0 {
		cfg.Workers = targetsWorkers
	}
	format, err := outputFormat()
	if err != nil {
		return err
	}

	var cache *targets.Cache
	if targetsWatch {
		if cache, err = targets.NewCache(cfg.CacheSize); err != nil {
			return err
		}
	}
	p := newPipeline(cache)

	if err := writeTargets(ctx, p, format, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
		return err
	}
	if !targetsWatch {
		return nil
	}

	logger.Info("watching for changes", zap.String("path", targetsPath))
	return source.Watch(ctx, targetsPath, cfg.Extensions, source.DefaultDebounce, func(changed []string) {
		logger.Debug("sources changed", zap.Strings("files", changed))
		if err := writeTargets(ctx, p, format, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
			logger.Error("rescan failed", zap.Error(err))
		}
	})
}

func outputFormat() (targets.Format, error) {
	if targetsFormat != "" {
		return targets.ParseFormat(targetsFormat)
	}
	def, err := targets.ParseFormat(cfg.Format)
	if err != nil {
		return "", err
	}
	if targetsOutput == "" {
		return def, nil
	}
	return targets.FormatFor(targetsOutput, def), nil
}

func writeTargets(ctx context.Context, p *pipeline.Pipeline, format targets.Format, stdout, stderr io.Writer) error {
	var report *targets.Report
	if targetsOutput != "" {
		var err error
		if report, err = p.WriteTargets(ctx, targetsPath, targetsOutput, format); err != nil {
			return err
		}
	} else {
		var err error
		if report, err = p.Targets(ctx, targetsPath); err != nil {
			return err
		}
		data, err := pipeline.Encode(report.Tables, format)
		if err != nil {
			return err
		}
		if _, err := stdout.Write(data); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
	}
	if n := len(report.Diagnostics); n > 0 {
		fmt.Fprintf(stderr, "skipped %d marker(s) with unparsable variable traces\n", n)
	}
	return nil
}
