// Package config provides configuration structures and loading logic for
// the pipeline.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fluxmesh/cfdpipe/pkg/domain"
)

// Config holds the full pipeline configuration.
type Config struct {
	Classify  ClassifyConfig  `yaml:"classify"`
	Staging   StagingConfig   `yaml:"staging"`
	Remote    RemoteConfig    `yaml:"remote"`
	Solver    SolverConfig    `yaml:"solver"`
	Overrides string          `yaml:"overrides,omitempty"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Classification strategies.
const (
	// StrategyExtents labels surfaces by bounding-box extent matching.
	StrategyExtents = "extents"
	// StrategyNormals labels surfaces by face-normal orientation.
	StrategyNormals = "normals"
)

// ClassifyConfig holds boundary-classification parameters.
type ClassifyConfig struct {
	// Strategy selects the classification method: "extents" or "normals".
	Strategy string `yaml:"strategy"`
	// Axis is the primary flow direction: "x", "y" or "z".
	Axis string `yaml:"axis"`
	// Epsilon is the absolute extent tolerance in model length units
	// (extents strategy).
	Epsilon float64 `yaml:"epsilon"`
	// NormalThreshold is the alignment cutoff in (0, 1] for the normals
	// strategy.
	NormalThreshold float64 `yaml:"normal_threshold"`
	// ReverseFlow flips the inlet to the downstream face.
	ReverseFlow bool `yaml:"reverse_flow"`
}

// StagingConfig holds local workspace layout.
type StagingConfig struct {
	WorkDir      string `yaml:"work_dir"`
	GeometryFile string `yaml:"geometry_file"`
	FlowDataFile string `yaml:"flow_data_file"`
	CaseFile     string `yaml:"case_file"`
	ResultsDir   string `yaml:"results_dir"`
}

// RemoteConfig holds file-sync service settings. Credentials never come
// from the config file; they are injected through the environment.
type RemoteConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BaseURL   string `yaml:"base_url"`
	TokenURL  string `yaml:"token_url"`
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`

	ClientID     string `yaml:"-"`
	ClientSecret string `yaml:"-"`
	RefreshToken string `yaml:"-"`
}

// SolverConfig holds the external solver trigger settings.
type SolverConfig struct {
	Enabled bool     `yaml:"enabled"`
	Command []string `yaml:"command"`
}

// LoggingConfig holds configuration for logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// TelemetryConfig holds metrics and tracing settings.
type TelemetryConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	Insecure       bool   `yaml:"insecure"`
	Environment    string `yaml:"environment"`
}

// Load reads configuration from a file (optional) and applies environment
// variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{
		// Defaults
		Classify: ClassifyConfig{
			Strategy:        StrategyExtents,
			Axis:            "x",
			Epsilon:         1e-4,
			NormalThreshold: 0.95,
		},
		Staging: StagingConfig{
			WorkDir:      "work",
			GeometryFile: "mesh.obj",
			FlowDataFile: "initial_data.json",
			CaseFile:     "fluid_simulation_input.json",
			ResultsDir:   "results",
		},
		Remote: RemoteConfig{
			InputDir:  "simulations/input",
			OutputDir: "simulations/output",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			MetricsAddress: ":9102",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CFDPIPE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("CFDPIPE_REMOTE_BASE_URL"); v != "" {
		cfg.Remote.BaseURL = v
	}
	if v := os.Getenv("CFDPIPE_REMOTE_TOKEN_URL"); v != "" {
		cfg.Remote.TokenURL = v
	}
	if v := os.Getenv("CFDPIPE_OTLP_ENDPOINT"); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	// Credential secrets are environment-only.
	cfg.Remote.ClientID = os.Getenv("CFDPIPE_CLIENT_ID")
	cfg.Remote.ClientSecret = os.Getenv("CFDPIPE_CLIENT_SECRET")
	cfg.Remote.RefreshToken = os.Getenv("CFDPIPE_REFRESH_TOKEN")
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if _, err := domain.ParseAxis(c.Classify.Axis); err != nil {
		return fmt.Errorf("classify.axis: %w", err)
	}
	if c.Classify.Strategy != StrategyExtents && c.Classify.Strategy != StrategyNormals {
		return fmt.Errorf("classify.strategy must be %q or %q, got %q", StrategyExtents, StrategyNormals, c.Classify.Strategy)
	}
	if c.Classify.Epsilon <= 0 {
		return fmt.Errorf("classify.epsilon must be positive, got %g", c.Classify.Epsilon)
	}
	if c.Classify.NormalThreshold <= 0 || c.Classify.NormalThreshold > 1 {
		return fmt.Errorf("classify.normal_threshold must be in (0, 1], got %g", c.Classify.NormalThreshold)
	}
	if c.Staging.WorkDir == "" {
		return fmt.Errorf("staging.work_dir must be set")
	}
	if c.Remote.Enabled && c.Remote.BaseURL == "" {
		return fmt.Errorf("remote.base_url must be set when the remote store is enabled")
	}
	if c.Solver.Enabled && len(c.Solver.Command) == 0 {
		return fmt.Errorf("solver.command must be set when the solver is enabled")
	}
	return nil
}

// Axis returns the parsed classification axis. Call after Validate.
func (c *Config) Axis() domain.Axis {
	axis, _ := domain.ParseAxis(c.Classify.Axis)
	return axis
}
