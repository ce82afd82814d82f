// Package main is the entry point for the cfdpipe binary. It provides a
// CLI for classifying mesh boundaries and running the simulation
// pre-processing pipeline.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/fluxmesh/cfdpipe/pkg/classifier"
	"github.com/fluxmesh/cfdpipe/pkg/config"
	"github.com/fluxmesh/cfdpipe/pkg/domain"
	"github.com/fluxmesh/cfdpipe/pkg/geometry"
	"github.com/fluxmesh/cfdpipe/pkg/logging"
	"github.com/fluxmesh/cfdpipe/pkg/pipeline"
	"github.com/fluxmesh/cfdpipe/pkg/solver"
	"github.com/fluxmesh/cfdpipe/pkg/telemetry"
	"github.com/fluxmesh/cfdpipe/pkg/transfer"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cfdpipe",
		Short: "CFD simulation pre-processing pipeline",
		Long: `cfdpipe prepares fluid simulation cases from surface meshes.

It classifies the boundary surfaces of a mesh into inlet, outlet and wall
groups based on their position along the flow axis, generates boundary
condition blocks, and assembles the solver input case.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to configuration file (YAML)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("pretty", false, "Human-readable log output")

	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// setup loads configuration and builds the process logger, applying the
// persistent flag overrides.
func setup(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
		cfg.Logging.Pretty = true
	}

	log := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Pretty: cfg.Logging.Pretty,
	})
	return cfg, log, nil
}

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify the boundary surfaces of a mesh",
		Long: `Classify reads a surface mesh and assigns each boundary surface to an
inlet, outlet or wall group based on its extent along the flow axis.
The resulting physical groups are written as JSON.`,
		RunE: runClassify,
	}

	cmd.Flags().StringP("mesh", "m", "", "Path to the OBJ surface mesh (required)")
	cmd.Flags().StringP("strategy", "s", "", "Classification strategy: extents or normals (default from config)")
	cmd.Flags().StringP("axis", "a", "", "Flow axis: x, y or z (default from config)")
	cmd.Flags().Float64P("epsilon", "e", 0, "Extent tolerance (default from config)")
	cmd.Flags().Bool("reverse-flow", false, "Place the inlet at the downstream face")
	cmd.Flags().StringP("output", "o", "", "Write groups JSON to this file instead of stdout")
	_ = cmd.MarkFlagRequired("mesh")

	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	meshPath, _ := cmd.Flags().GetString("mesh")
	f, err := os.Open(meshPath)
	if err != nil {
		return err
	}
	defer f.Close()

	mesh, err := geometry.ReadOBJ(f)
	if err != nil {
		return err
	}

	axis := cfg.Axis()
	if flag, _ := cmd.Flags().GetString("axis"); flag != "" {
		axis, err = domain.ParseAxis(flag)
		if err != nil {
			return err
		}
	}
	reverse := cfg.Classify.ReverseFlow
	if flag, _ := cmd.Flags().GetBool("reverse-flow"); flag {
		reverse = true
	}
	strategy := cfg.Classify.Strategy
	if flag, _ := cmd.Flags().GetString("strategy"); flag != "" {
		strategy = flag
	}

	var result *domain.Classification
	switch strategy {
	case config.StrategyNormals:
		result, err = classifier.New(log).ClassifyByNormals(mesh, classifier.NormalOptions{
			Axis:        axis,
			Threshold:   cfg.Classify.NormalThreshold,
			ReverseFlow: reverse,
		})
	case config.StrategyExtents:
		epsilon := cfg.Classify.Epsilon
		if flag, _ := cmd.Flags().GetFloat64("epsilon"); flag != 0 {
			epsilon = flag
		}
		result, err = classifier.New(log).Classify(mesh, classifier.Options{
			Axis:        axis,
			Epsilon:     epsilon,
			ReverseFlow: reverse,
		})
	default:
		return fmt.Errorf("unknown classification strategy %q", strategy)
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(result.Groups(), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		return os.WriteFile(output, data, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute one pipeline run",
		Long: `Run executes the full pipeline once: retrieve staged inputs, classify
the mesh boundary, generate and validate the case, trigger the solver and
upload results.`,
		RunE: runOnce,
	}
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdown, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		ServiceName: "cfdpipe",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Environment: cfg.Telemetry.Environment,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	p, err := buildPipeline(ctx, cfg, telemetry.NewMetrics(), log)
	if err != nil {
		return err
	}

	run, err := p.Run(ctx)
	if run != nil {
		log.Info().Str("run_id", run.ID).Str("status", string(run.Status)).
			Int("stages", len(run.Stages)).Msg("run complete")
	}
	return err
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the staging directory and run the pipeline on new meshes",
		Long: `Watch monitors the staging directory for incoming geometry files and
triggers a pipeline run for each one. A metrics endpoint is served while
watching.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdown, err := telemetry.SetupTracing(ctx, telemetry.TracingConfig{
		ServiceName: "cfdpipe",
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Environment: cfg.Telemetry.Environment,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown failed")
		}
	}()

	metrics := telemetry.NewMetrics()
	p, err := buildPipeline(ctx, cfg, metrics, log)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Staging.WorkDir, 0o755); err != nil {
		return err
	}

	// Runs triggered by the watcher execute one at a time.
	var runMu sync.Mutex
	watcher, err := pipeline.NewWatcher(cfg.Staging.WorkDir, func(path string) {
		runMu.Lock()
		defer runMu.Unlock()
		if _, err := p.Run(ctx); err != nil {
			log.Error().Err(err).Str("trigger", path).Msg("triggered run failed")
		}
	}, log)
	if err != nil {
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		return err
	}
	defer watcher.Stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: cfg.Telemetry.MetricsAddress, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
			cancel()
		}
	}()

	log.Info().Str("dir", cfg.Staging.WorkDir).
		Str("metrics", cfg.Telemetry.MetricsAddress).Msg("watching for geometry files")

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("metrics server shutdown failed")
	}
	log.Info().Msg("watcher stopped")
	return nil
}

// buildPipeline assembles the pipeline collaborators from configuration.
func buildPipeline(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics, log zerolog.Logger) (*pipeline.Pipeline, error) {
	var store transfer.Store
	if cfg.Remote.Enabled {
		remote, err := transfer.NewRemoteStore(transfer.RemoteConfig{
			BaseURL:      cfg.Remote.BaseURL,
			TokenURL:     cfg.Remote.TokenURL,
			ClientID:     cfg.Remote.ClientID,
			ClientSecret: cfg.Remote.ClientSecret,
			RefreshToken: cfg.Remote.RefreshToken,
		}, log)
		if err != nil {
			return nil, err
		}
		store = remote
	}

	var runner solver.Runner
	if cfg.Solver.Enabled {
		cmdRunner, err := solver.NewCommandRunner(cfg.Solver.Command, log)
		if err != nil {
			return nil, err
		}
		runner = cmdRunner
	}

	return pipeline.New(ctx, cfg, store, runner, metrics, log)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the cfdpipe version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cfdpipe %s\n", version)
		},
	}
}
