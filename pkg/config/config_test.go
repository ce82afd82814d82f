package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxmesh/cfdpipe/pkg/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, StrategyExtents, cfg.Classify.Strategy)
	assert.Equal(t, "x", cfg.Classify.Axis)
	assert.Equal(t, 1e-4, cfg.Classify.Epsilon)
	assert.Equal(t, 0.95, cfg.Classify.NormalThreshold)
	assert.Equal(t, domain.AxisX, cfg.Axis())
	assert.Equal(t, "mesh.obj", cfg.Staging.GeometryFile)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfdpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
classify:
  axis: z
  epsilon: 0.001
  reverse_flow: true
solver:
  enabled: true
  command: ["simpleFoam"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, domain.AxisZ, cfg.Axis())
	assert.Equal(t, 0.001, cfg.Classify.Epsilon)
	assert.True(t, cfg.Classify.ReverseFlow)
	assert.Equal(t, []string{"simpleFoam"}, cfg.Solver.Command)
	// Untouched sections keep their defaults.
	assert.Equal(t, "work", cfg.Staging.WorkDir)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CFDPIPE_LOG_LEVEL", "debug")
	t.Setenv("CFDPIPE_REFRESH_TOKEN", "tok-1")
	t.Setenv("CFDPIPE_CLIENT_ID", "id-1")
	t.Setenv("CFDPIPE_CLIENT_SECRET", "sec-1")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "tok-1", cfg.Remote.RefreshToken)
	assert.Equal(t, "id-1", cfg.Remote.ClientID)
	assert.Equal(t, "sec-1", cfg.Remote.ClientSecret)
}

func TestLoad_InvalidAxis(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfdpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classify:\n  axis: w\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_Inconsistencies(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Classify.Epsilon = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Remote.Enabled = true
	assert.Error(t, cfg.Validate(), "remote enabled without base URL")

	cfg = base()
	cfg.Solver.Enabled = true
	assert.Error(t, cfg.Validate(), "solver enabled without command")

	cfg = base()
	cfg.Classify.Strategy = "nearest"
	assert.Error(t, cfg.Validate(), "unknown classification strategy")

	cfg = base()
	cfg.Classify.NormalThreshold = 1.5
	assert.Error(t, cfg.Validate(), "normal threshold out of range")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
