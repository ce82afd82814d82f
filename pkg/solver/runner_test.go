package solver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandRunner_RunsInCaseDir(t *testing.T) {
	dir := t.TempDir()
	runner, err := NewCommandRunner([]string{"sh", "-c", "pwd > marker.txt"}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), dir))

	data, err := os.ReadFile(filepath.Join(dir, "marker.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), filepath.Base(dir))
}

func TestCommandRunner_PropagatesExitError(t *testing.T) {
	runner, err := NewCommandRunner([]string{"sh", "-c", "exit 3"}, zerolog.Nop())
	require.NoError(t, err)

	err = runner.Run(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestNewCommandRunner_RejectsEmptyCommand(t *testing.T) {
	_, err := NewCommandRunner(nil, zerolog.Nop())
	assert.Error(t, err)
}
