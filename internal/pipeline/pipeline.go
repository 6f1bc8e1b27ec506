package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"go.uber.org/zap"

	"abstraktor/internal/config"
	"abstraktor/internal/shell"
	"abstraktor/internal/source"
	"abstraktor/internal/targets"
)

// Pipeline drives the fuzzing workflow: scanning annotated sources and
// handing the result to the external build, docker and mediator tooling.
type Pipeline struct {
	cfg        *config.Config
	loader     *source.Loader
	runner     shell.Runner
	logger     *zap.Logger
	aggregator *targets.Aggregator
}

// New creates a pipeline. cache may be nil.
func New(cfg *config.Config, runner shell.Runner, logger *zap.Logger, cache *targets.Cache) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := []targets.Option{targets.WithWorkers(cfg.Workers), targets.WithStrict(cfg.Strict)}
	if cache != nil {
		opts = append(opts, targets.WithCache(cache))
	}
	return &Pipeline{
		cfg:        cfg,
		loader:     source.NewLoader(),
		runner:     runner,
		logger:     logger,
		aggregator: targets.NewAggregator(opts...),
	}
}

// Loader exposes the file access used by the pipeline.
func (p *Pipeline) Loader() *source.Loader {
	return p.loader
}

// Targets scans the file or directory at path. Skipped markers are logged as
// warnings and returned in the report.
func (p *Pipeline) Targets(ctx context.Context, path string) (*targets.Report, error) {
	sources, err := p.loader.Collect(ctx, path, p.cfg.Extensions)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("scanning sources", zap.String("path", path), zap.Int("files", len(sources)))
	report, err := p.aggregator.Aggregate(ctx, sources)
	if err != nil {
		return nil, err
	}
	for _, d := range report.Diagnostics {
		p.logger.Warn("skipped marker",
			zap.String("path", d.Path),
			zap.Int("line", d.Line),
			zap.String("kind", d.Kind),
			zap.String("payload", d.Payload),
			zap.String("reason", d.Message))
	}
	return report, nil
}

// Encode serializes tables in format.
func Encode(tables []*targets.Table, format targets.Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := targets.Encode(&buf, tables, format); err != nil {
		return nil, fmt.Errorf("failed to encode targets: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteTargets scans path and writes the table collection to output.
func (p *Pipeline) WriteTargets(ctx context.Context, path, output string, format targets.Format) (*targets.Report, error) {
	report, err := p.Targets(ctx, path)
	if err != nil {
		return nil, err
	}
	data, err := Encode(report.Tables, format)
	if err != nil {
		return nil, err
	}
	if err := p.loader.Write(ctx, output, data); err != nil {
		return nil, err
	}
	p.logger.Info("targets written",
		zap.String("output", output),
		zap.Int("files", len(report.Tables)),
		zap.Int("targets", report.Targets()),
		zap.Int("skipped", len(report.Diagnostics)))
	return report, nil
}
