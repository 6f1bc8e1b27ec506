package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"abstraktor/internal/shell"
	"abstraktor/internal/targets"
)

// Instrument scans the sources under path, hands the targets to the
// compiler wrapper through the targets environment variable and builds path.
// The intermediate targets file is removed whether or not the build succeeds.
func (p *Pipeline) Instrument(ctx context.Context, path string) (err error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if info, err := os.Stat(root); err != nil {
		return fmt.Errorf("failed to stat %s: %w", root, err)
	} else if !info.IsDir() {
		return fmt.Errorf("instrument needs a directory, got file %s", root)
	}
	report, err := p.Targets(ctx, root)
	if err != nil {
		return err
	}
	tables, err := relativeTo(root, report.Tables)
	if err != nil {
		return err
	}
	data, err := Encode(tables, targets.FormatJSON)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "abstraktor-targets-*.json")
	if err != nil {
		return fmt.Errorf("failed to create targets file: %w", err)
	}
	targetsPath := tmp.Name()
	_ = tmp.Close()
	defer func() {
		if rmErr := p.loader.Remove(context.WithoutCancel(ctx), targetsPath); rmErr != nil && err == nil {
			err = rmErr
		}
	}()
	if err := p.loader.Write(ctx, targetsPath, data); err != nil {
		return err
	}

	p.logger.Info("instrumenting",
		zap.String("path", root),
		zap.Int("files", len(tables)),
		zap.Int("targets", report.Targets()))
	if err := p.runner.Run(ctx, p.buildCommand(root, targetsPath)); err != nil {
		return fmt.Errorf("instrumented build failed: %w", err)
	}
	p.logger.Info("instrumented build finished", zap.String("path", root))
	return nil
}

// Compile builds path with the compiler wrapper using an existing targets
// file, placing build artifacts in output.
func (p *Pipeline) Compile(ctx context.Context, path, targetsPath, output string) error {
	root, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	targetsAbs, err := filepath.Abs(targetsPath)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", targetsPath, err)
	}
	exists, err := p.loader.Exists(ctx, targetsAbs)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("targets file not found: %s", targetsAbs)
	}
	outAbs, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", output, err)
	}
	if err := os.MkdirAll(outAbs, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outAbs, err)
	}

	cmd := p.buildCommand(root, targetsAbs)
	cmd.Env = append(cmd.Env, "OUT_DIR="+outAbs)
	p.logger.Info("compiling", zap.String("path", root), zap.String("targets", targetsAbs), zap.String("output", outAbs))
	if err := p.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}
	return nil
}

func (p *Pipeline) buildCommand(dir, targetsPath string) shell.Command {
	return shell.Command{
		Name: p.cfg.Compiler.Command,
		Args: append([]string(nil), p.cfg.Compiler.Args...),
		Dir:  dir,
		Env: []string{
			p.cfg.TargetsEnv + "=" + targetsPath,
			"CC=" + p.cfg.Compiler.CC,
			"CXX=" + p.cfg.Compiler.CXX,
		},
	}
}

// relativeTo rewrites table paths relative to root, the directory the build
// runs in, without touching the scanned tables.
func relativeTo(root string, tables []*targets.Table) ([]*targets.Table, error) {
	out := make([]*targets.Table, len(tables))
	for i, table := range tables {
		rel, err := filepath.Rel(root, table.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to relativize %s: %w", table.Path, err)
		}
		clone := *table
		clone.Path = filepath.ToSlash(rel)
		out[i] = &clone
	}
	return out, nil
}
