package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Command is one external process invocation. Env entries (KEY=VALUE) are
// added to the inherited environment.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner starts external collaborators: docker, the compiler wrapper, the
// mediator.
type Runner interface {
	// Run executes the command, streaming its output.
	Run(ctx context.Context, cmd Command) error
	// Output executes the command and returns its standard output.
	Output(ctx context.Context, cmd Command) (string, error)
}

// Exec runs commands as local processes.
type Exec struct {
	Logger *zap.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// NewExec returns a runner streaming to the process stdout and stderr.
func NewExec(logger *zap.Logger) *Exec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{Logger: logger, Stdout: os.Stdout, Stderr: os.Stderr}
}

func (e *Exec) Run(ctx context.Context, cmd Command) error {
	c := e.command(ctx, cmd)
	c.Stdout = e.Stdout
	c.Stderr = e.Stderr
	if err := c.Run(); err != nil {
		return fmt.Errorf("failed to run %q: %w", cmd.String(), err)
	}
	return nil
}

func (e *Exec) Output(ctx context.Context, cmd Command) (string, error) {
	var stderr bytes.Buffer
	c := e.command(ctx, cmd)
	c.Stderr = &stderr
	out, err := c.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("failed to run %q: %w: %s", cmd.String(), err, msg)
		}
		return "", fmt.Errorf("failed to run %q: %w", cmd.String(), err)
	}
	return string(out), nil
}

func (e *Exec) command(ctx context.Context, cmd Command) *exec.Cmd {
	e.Logger.Debug("executing", zap.Stringer("command", cmd), zap.String("dir", cmd.Dir), zap.Strings("env", cmd.Env))
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	return c
}
