// Package solver triggers the external CFD solver for a prepared case
// directory. The solver itself is an external collaborator; this package
// only manages its process lifecycle and log capture.
package solver

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/rs/zerolog"
)

// Runner executes the solver against a case directory.
type Runner interface {
	Run(ctx context.Context, caseDir string) error
}

// CommandRunner runs a configured solver command with the case directory
// as its working directory, streaming stdout and stderr into the log.
type CommandRunner struct {
	command []string
	log     zerolog.Logger
}

// NewCommandRunner creates a runner for the given command line.
func NewCommandRunner(command []string, log zerolog.Logger) (*CommandRunner, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("solver command cannot be empty")
	}
	return &CommandRunner{
		command: command,
		log:     log.With().Str("component", "solver").Logger(),
	}, nil
}

// Run implements Runner. The process is killed when ctx is cancelled.
func (r *CommandRunner) Run(ctx context.Context, caseDir string) error {
	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	cmd.Dir = caseDir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("solver stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("solver stderr pipe: %w", err)
	}

	r.log.Info().Strs("command", r.command).Str("case_dir", caseDir).Msg("starting solver")
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start solver: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			r.log.Info().Str("stream", "stdout").Msg(scanner.Text())
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			r.log.Warn().Str("stream", "stderr").Msg(scanner.Text())
		}
	}()

	wg.Wait()
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("solver exited: %w", err)
	}
	r.log.Info().Msg("solver finished")
	return nil
}
