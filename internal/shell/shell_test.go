package shell_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"abstraktor/internal/shell"
)

func TestExec_Output(t *testing.T) {
	runner := shell.NewExec(zaptest.NewLogger(t))
	out, err := runner.Output(context.Background(), shell.Command{
		Name: "sh",
		Args: []string{"-c", "printf '%s' \"$TARGETS_FILE\""},
		Env:  []string{"TARGETS_FILE=/tmp/targets.json"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/targets.json", out)
}

func TestExec_Run(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	runner := shell.NewExec(nil)
	runner.Stdout = &stdout
	require.NoError(t, runner.Run(context.Background(), shell.Command{Name: "pwd", Dir: dir}))
	assert.Contains(t, stdout.String(), dir)
}

func TestExec_Failure(t *testing.T) {
	runner := shell.NewExec(nil)
	runner.Stderr = &bytes.Buffer{}
	err := runner.Run(context.Background(), shell.Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sh -c exit 3")

	_, err = runner.Output(context.Background(), shell.Command{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCommand_String(t *testing.T) {
	assert.Equal(t, "docker ps -aq", shell.Command{Name: "docker", Args: []string{"ps", "-aq"}}.String())
	assert.Equal(t, "make", shell.Command{Name: "make"}.String())
}
