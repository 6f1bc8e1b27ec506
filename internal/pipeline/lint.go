package pipeline

import (
	"context"

	"go.uber.org/zap"

	"abstraktor/internal/lint"
)

// Lint scans path and checks every resolved target against the C/C++ parse
// tree of its file.
func (p *Pipeline) Lint(ctx context.Context, path string) ([]lint.Finding, error) {
	sources, err := p.loader.Collect(ctx, path, p.cfg.Extensions)
	if err != nil {
		return nil, err
	}
	report, err := p.aggregator.Aggregate(ctx, sources)
	if err != nil {
		return nil, err
	}
	var findings []lint.Finding
	for i, table := range report.Tables {
		if table.Empty() {
			continue
		}
		found, err := lint.Check(ctx, table, sources[i].Content)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			p.logger.Warn("suspicious target",
				zap.String("path", f.Path),
				zap.Int("line", f.Line),
				zap.String("kind", f.Kind),
				zap.String("reason", f.Message))
		}
		findings = append(findings, found...)
	}
	p.logger.Debug("lint finished", zap.Int("files", len(report.Tables)), zap.Int("findings", len(findings)))
	return findings, nil
}
