// Package pipeline wires the pre-processing stages together: retrieve
// staged inputs, load the mesh, classify its boundary, generate and
// validate the solver case, trigger the solver, and upload results.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fluxmesh/cfdpipe/pkg/boundary"
	"github.com/fluxmesh/cfdpipe/pkg/classifier"
	"github.com/fluxmesh/cfdpipe/pkg/config"
	"github.com/fluxmesh/cfdpipe/pkg/domain"
	"github.com/fluxmesh/cfdpipe/pkg/geometry"
	"github.com/fluxmesh/cfdpipe/pkg/solver"
	"github.com/fluxmesh/cfdpipe/pkg/telemetry"
	"github.com/fluxmesh/cfdpipe/pkg/transfer"
)

// Pipeline executes one full pre-processing run. Store and solver are
// optional collaborators: without a store the pipeline works on files
// already present in the staging directory, and without a solver the run
// stops after writing the case.
type Pipeline struct {
	cfg       *config.Config
	store     transfer.Store
	runner    solver.Runner
	cls       *classifier.Classifier
	validator *boundary.Validator
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
	log       zerolog.Logger
}

// New assembles a pipeline from its collaborators. store and runner may be
// nil; metrics must not be.
func New(ctx context.Context, cfg *config.Config, store transfer.Store, runner solver.Runner, metrics *telemetry.Metrics, log zerolog.Logger) (*Pipeline, error) {
	validator, err := boundary.NewValidator(ctx)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:       cfg,
		store:     store,
		runner:    runner,
		cls:       classifier.New(log),
		validator: validator,
		metrics:   metrics,
		tracer:    otel.Tracer("cfdpipe/pipeline"),
		log:       log.With().Str("component", "pipeline").Logger(),
	}, nil
}

// Run executes the stages in order, aborting on the first error. The
// returned Run record is populated either way.
func (p *Pipeline) Run(ctx context.Context) (*domain.Run, error) {
	run := domain.NewRun()
	log := p.log.With().Str("run_id", run.ID).Logger()
	log.Info().Msg("pipeline run started")

	ctx, span := p.tracer.Start(ctx, "pipeline.run")
	defer span.End()

	var (
		mesh           *geometry.TriangleMesh
		classification *domain.Classification
		flow           boundary.FlowData
		caseDoc        *boundary.Case
	)
	workDir := p.cfg.Staging.WorkDir
	geometryPath := filepath.Join(workDir, p.cfg.Staging.GeometryFile)
	flowPath := filepath.Join(workDir, p.cfg.Staging.FlowDataFile)
	casePath := filepath.Join(workDir, p.cfg.Staging.CaseFile)

	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"retrieve", func(ctx context.Context) error {
			if p.store == nil {
				if _, err := os.Stat(geometryPath); err != nil {
					return fmt.Errorf("staged geometry missing: %w", err)
				}
				return nil
			}
			if err := os.MkdirAll(workDir, 0o755); err != nil {
				return err
			}
			if err := p.download(ctx, p.cfg.Remote.InputDir+"/"+p.cfg.Staging.GeometryFile, geometryPath); err != nil {
				return err
			}
			// Flow data is optional; a missing document falls back to
			// quiescent defaults during generation.
			if err := p.download(ctx, p.cfg.Remote.InputDir+"/"+p.cfg.Staging.FlowDataFile, flowPath); err != nil {
				log.Warn().Err(err).Msg("no staged flow data; using defaults")
			}
			return nil
		}},
		{"load", func(context.Context) error {
			f, err := os.Open(geometryPath)
			if err != nil {
				return err
			}
			defer f.Close()
			mesh, err = geometry.ReadOBJ(f)
			return err
		}},
		{"classify", func(context.Context) error {
			var err error
			if p.cfg.Classify.Strategy == config.StrategyNormals {
				classification, err = p.cls.ClassifyByNormals(mesh, classifier.NormalOptions{
					Axis:        p.cfg.Axis(),
					Threshold:   p.cfg.Classify.NormalThreshold,
					ReverseFlow: p.cfg.Classify.ReverseFlow,
				})
			} else {
				classification, err = p.cls.Classify(mesh, classifier.Options{
					Axis:        p.cfg.Axis(),
					Epsilon:     p.cfg.Classify.Epsilon,
					ReverseFlow: p.cfg.Classify.ReverseFlow,
				})
			}
			if err != nil {
				return err
			}
			p.metrics.RecordClassification(classification)
			return nil
		}},
		{"overrides", func(context.Context) error {
			if p.cfg.Overrides == "" {
				return nil
			}
			overrides, err := boundary.LoadOverrides(p.cfg.Overrides)
			if err != nil {
				return err
			}
			overrides.Apply(classification, log)
			return nil
		}},
		{"generate", func(context.Context) error {
			flow = boundary.DefaultFlowData()
			if f, err := os.Open(flowPath); err == nil {
				defer f.Close()
				flow, err = boundary.ReadFlowData(f)
				if err != nil {
					return err
				}
			}
			caseDoc = boundary.BuildCase(classification, flow)
			return nil
		}},
		{"validate", func(ctx context.Context) error {
			return p.validator.Validate(ctx, caseDoc)
		}},
		{"write", func(context.Context) error {
			return boundary.WriteCase(casePath, caseDoc)
		}},
		{"solve", func(ctx context.Context) error {
			if p.runner == nil {
				return nil
			}
			return p.runner.Run(ctx, workDir)
		}},
		{"upload", func(ctx context.Context) error {
			if p.store == nil {
				return nil
			}
			if err := p.upload(ctx, casePath, p.cfg.Remote.OutputDir+"/"+p.cfg.Staging.CaseFile); err != nil {
				return err
			}
			return p.uploadResults(ctx)
		}},
	}

	for _, stage := range stages {
		if err := p.runStage(ctx, run, stage.name, stage.fn); err != nil {
			run.Finish(domain.RunFailed)
			p.metrics.RecordRun(domain.RunFailed)
			span.SetStatus(codes.Error, err.Error())
			log.Error().Err(err).Str("stage", stage.name).Msg("pipeline run failed")
			return run, err
		}
	}

	run.Finish(domain.RunSucceeded)
	p.metrics.RecordRun(domain.RunSucceeded)
	log.Info().Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).Msg("pipeline run succeeded")
	return run, nil
}

func (p *Pipeline) runStage(ctx context.Context, run *domain.Run, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "stage."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	run.RecordStage(name, elapsed, err)
	p.metrics.ObserveStage(name, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("stage %s: %w", name, err)
	}
	p.log.Debug().Str("stage", name).Dur("elapsed", elapsed).Msg("stage complete")
	return nil
}

func (p *Pipeline) download(ctx context.Context, remotePath, localPath string) error {
	f, err := os.Create(localPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := p.store.Download(ctx, remotePath, f); err != nil {
		os.Remove(localPath)
		return err
	}
	return f.Close()
}

func (p *Pipeline) upload(ctx context.Context, localPath, remotePath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return p.store.Upload(ctx, remotePath, f)
}

// uploadResults pushes every file under the results directory, if the
// solver produced one.
func (p *Pipeline) uploadResults(ctx context.Context) error {
	resultsDir := filepath.Join(p.cfg.Staging.WorkDir, p.cfg.Staging.ResultsDir)
	entries, err := os.ReadDir(resultsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		local := filepath.Join(resultsDir, entry.Name())
		remote := p.cfg.Remote.OutputDir + "/" + p.cfg.Staging.ResultsDir + "/" + entry.Name()
		if err := p.upload(ctx, local, remote); err != nil {
			return err
		}
	}
	return nil
}
