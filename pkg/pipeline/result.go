package pipeline

import (
	"time"

	"github.com/zen-systems/designflow/pkg/adapter"
	"github.com/zen-systems/designflow/pkg/agent"
	"github.com/zen-systems/designflow/pkg/artifact"
	"github.com/zen-systems/designflow/pkg/fault"
	"github.com/zen-systems/designflow/pkg/fileset"
)

// Status is the outcome of a single stage.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// StageResult captures one stage's outcome. Immutable once appended to a Run.
type StageResult struct {
	Name     string
	Status   Status
	Kind     fault.Kind
	Err      error
	Artifact *artifact.Artifact
	Usage    adapter.Usage
	Attempts int
	Duration time.Duration
}

// Run is the record of one end-to-end pipeline execution.
type Run struct {
	ID        string
	URL       string
	CreatedAt time.Time
	Dir       string
	Stages    []StageResult
	FileSet   *fileset.Set
	Review    *agent.Review
}

// Success reports whether every stage succeeded.
func (r *Run) Success() bool {
	if len(r.Stages) == 0 {
		return false
	}
	for _, s := range r.Stages {
		if s.Status != StatusSucceeded {
			return false
		}
	}
	return true
}

// FailedStage returns the failed stage result, if any.
func (r *Run) FailedStage() *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Status == StatusFailed {
			return &r.Stages[i]
		}
	}
	return nil
}

// Stage returns the result for a stage name, if recorded.
func (r *Run) Stage(name string) *StageResult {
	for i := range r.Stages {
		if r.Stages[i].Name == name {
			return &r.Stages[i]
		}
	}
	return nil
}
