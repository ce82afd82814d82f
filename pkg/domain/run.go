package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the terminal state of a pipeline run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// StageResult records one executed pipeline stage.
type StageResult struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Run is the record of one pipeline invocation.
type Run struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Status     RunStatus     `json:"status"`
	Stages     []StageResult `json:"stages"`
}

// NewRun creates a Run with a fresh UUID, stamped with the current time.
func NewRun() *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
}

// Finish stamps the end time and terminal status.
func (r *Run) Finish(status RunStatus) {
	r.FinishedAt = time.Now().UTC()
	r.Status = status
}

// RecordStage appends a stage result.
func (r *Run) RecordStage(name string, d time.Duration, err error) {
	s := StageResult{Name: name, Duration: d}
	if err != nil {
		s.Error = err.Error()
	}
	r.Stages = append(r.Stages, s)
}
