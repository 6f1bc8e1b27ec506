package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"abstraktor/internal/shell"
)

// SetupDocker builds the Mallory docker images.
func (p *Pipeline) SetupDocker(ctx context.Context) error {
	p.logger.Info("building docker images for mallory", zap.String("dir", p.cfg.Mallory.Dir))
	cmd := shell.Command{Name: "sudo", Args: []string{"bash", "bin/up", "--build-only"}, Dir: p.cfg.Mallory.Dir}
	if err := p.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to build mallory images: %w", err)
	}
	p.logger.Info("docker images built")
	return nil
}

// RunMallory starts the Mallory cluster.
func (p *Pipeline) RunMallory(ctx context.Context) error {
	up, err := p.existing(filepath.Join(p.cfg.Mallory.Dir, "bin", "up"), "mallory up script")
	if err != nil {
		return err
	}
	p.logger.Info("starting mallory", zap.String("script", up))
	if err := p.runner.Run(ctx, shell.Command{Name: "bash", Args: []string{up}}); err != nil {
		return fmt.Errorf("failed to run mallory: %w", err)
	}
	p.logger.Info("mallory is up")
	return nil
}

// RunMediator starts the mediator controller.
func (p *Pipeline) RunMediator(ctx context.Context) error {
	bin, err := p.existing(p.cfg.Mediator.Binary, "mediator binary")
	if err != nil {
		return err
	}
	m := p.cfg.Mediator
	p.logger.Info("starting mediator",
		zap.String("binary", bin),
		zap.String("algorithm", m.Algorithm),
		zap.String("table", m.Table),
		zap.String("reward", m.Reward))
	cmd := shell.Command{Name: "sudo", Args: []string{bin, m.Algorithm, m.Table, m.Reward}}
	if err := p.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("failed to run mediator: %w", err)
	}
	p.logger.Info("mediator started")
	return nil
}

// Clean removes every docker container and volume. A listing failure, such
// as no running docker daemon, is logged and the step skipped.
func (p *Pipeline) Clean(ctx context.Context) error {
	steps := []struct {
		what   string
		list   []string
		remove []string
	}{
		{what: "containers", list: []string{"ps", "-aq"}, remove: []string{"rm", "-f"}},
		{what: "volumes", list: []string{"volume", "ls", "-q"}, remove: []string{"volume", "rm"}},
	}
	for _, step := range steps {
		out, err := p.runner.Output(ctx, shell.Command{Name: "docker", Args: step.list})
		if err != nil {
			p.logger.Error("failed to list docker "+step.what, zap.Error(err))
			continue
		}
		ids := strings.Fields(out)
		if len(ids) == 0 {
			p.logger.Info("no docker " + step.what + " to remove")
			continue
		}
		args := append(append([]string(nil), step.remove...), ids...)
		if err := p.runner.Run(ctx, shell.Command{Name: "docker", Args: args}); err != nil {
			return fmt.Errorf("failed to remove docker %s: %w", step.what, err)
		}
		p.logger.Info("removed docker "+step.what, zap.Int("count", len(ids)))
	}
	return nil
}

func (p *Pipeline) existing(path, what string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		p.logger.Error(what+" not found", zap.String("path", abs))
		return "", fmt.Errorf("%s not found at %s: %w", what, abs, err)
	}
	return abs, nil
}
