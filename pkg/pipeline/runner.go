package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/zen-systems/designflow/pkg/adapter"
	"github.com/zen-systems/designflow/pkg/agent"
	"github.com/zen-systems/designflow/pkg/artifact"
	"github.com/zen-systems/designflow/pkg/config"
	"github.com/zen-systems/designflow/pkg/fault"
	"github.com/zen-systems/designflow/pkg/figma"
	"github.com/zen-systems/designflow/pkg/fileset"
	"github.com/zen-systems/designflow/pkg/runstore"
)

// DesignFetcher fetches design data for a URL. Implemented by figma.Client;
// tests substitute their own.
type DesignFetcher interface {
	FetchDesign(ctx context.Context, rawURL string) (*figma.Design, error)
}

// ProgressFunc receives stage progress updates.
type ProgressFunc func(stage, message string, fraction float64)

// Options configures a pipeline run.
type Options struct {
	// RunsDir is the base directory run artifacts are written under.
	RunsDir string
	// OnProgress, when set, receives progress updates per stage.
	OnProgress ProgressFunc
	// AutoFix asks the coder to regenerate the file set when the reviewer
	// does not approve and did not supply fixed files itself.
	AutoFix bool
	// Logger receives structured run logs. Defaults to a discard logger.
	Logger *log.Logger
}

// Runner executes the four-stage pipeline. A Runner is safe to reuse across
// runs; it holds only read-only configuration.
type Runner struct {
	fetcher  DesignFetcher
	adapters map[string]adapter.Adapter
	cfg      *config.StagesConfig
}

// NewRunner creates a pipeline runner and verifies that every stage's
// configured adapter is available.
func NewRunner(fetcher DesignFetcher, adapters map[string]adapter.Adapter, cfg *config.StagesConfig) (*Runner, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("design fetcher is required")
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no adapters configured")
	}
	if cfg == nil {
		cfg = config.DefaultStagesConfig()
	}
	if err := ValidateStages(Stages); err != nil {
		return nil, err
	}

	for _, stage := range Stages {
		target := cfg.Target(stage.Name)
		if _, ok := adapters[target.Adapter]; !ok {
			return nil, fmt.Errorf("stage %s: adapter %q not configured", stage.Name, target.Adapter)
		}
	}

	return &Runner{fetcher: fetcher, adapters: adapters, cfg: cfg}, nil
}

// runState carries per-run mutable state between stages.
type runState struct {
	url       string
	writer    *runstore.Writer
	artifacts map[string]string
	design    *figma.Design
	set       *fileset.Set
	review    *agent.Review
	opts      Options
	logger    *log.Logger
}

// Run executes the pipeline for a design URL. Stage failures are recorded
// in the returned Run rather than returned as an error; the error return is
// reserved for failures to set up the run itself.
func (r *Runner) Run(ctx context.Context, designURL string, opts Options) (*Run, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	runID := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
	writer, err := runstore.NewWriter(opts.RunsDir, runID)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:        runID,
		URL:       designURL,
		CreatedAt: time.Now().UTC(),
		Dir:       writer.RunDir(),
	}
	if err := writer.WriteRun(runstore.RunRecord{
		ID:        runID,
		Timestamp: run.CreatedAt,
		URL:       designURL,
		InputHash: hashString(designURL),
	}); err != nil {
		return nil, err
	}

	state := &runState{
		url:       designURL,
		writer:    writer,
		artifacts: make(map[string]string),
		opts:      opts,
		logger:    logger,
	}

	halted := false
	for i, stage := range Stages {
		if halted || ctx.Err() != nil {
			result := StageResult{Name: stage.Name, Status: StatusSkipped}
			run.Stages = append(run.Stages, result)
			r.recordStage(state, result)
			halted = true
			continue
		}

		// The descriptor check makes the ordering invariant explicit:
		// a stage with an unmet need never runs.
		if missing := unmetNeeds(stage, state.artifacts); missing != "" {
			result := StageResult{
				Name:   stage.Name,
				Status: StatusFailed,
				Kind:   fault.KindUnknown,
				Err:    fmt.Errorf("artifact %q missing for stage %s", missing, stage.Name),
			}
			run.Stages = append(run.Stages, result)
			r.recordStage(state, result)
			halted = true
			continue
		}

		notify(opts.OnProgress, stage.Name, stageStartMessage(stage.Name), float64(i)*0.25)
		logger.Info("stage starting", "run", runID, "stage", stage.Name)

		result := r.runStage(ctx, stage, state)
		run.Stages = append(run.Stages, result)
		r.recordStage(state, result)

		if result.Status != StatusSucceeded {
			logger.Error("stage failed", "run", runID, "stage", stage.Name, "kind", result.Kind, "err", result.Err)
			notify(opts.OnProgress, stage.Name, fmt.Sprintf("%s failed: %s", stage.Name, result.Kind), -1)
			halted = true
			continue
		}

		logger.Info("stage complete", "run", runID, "stage", stage.Name, "duration", result.Duration)
		notify(opts.OnProgress, stage.Name, stageDoneMessage(stage.Name), float64(i+1)*0.25)
	}

	run.FileSet = state.set
	run.Review = state.review

	record := runstore.RunRecord{
		ID:        runID,
		Timestamp: run.CreatedAt,
		URL:       designURL,
		InputHash: hashString(designURL),
		Success:   run.Success(),
	}
	if failed := run.FailedStage(); failed != nil && failed.Err != nil {
		record.Error = fmt.Sprintf("[%s] %s", failed.Name, failed.Err)
	}
	if err := writer.WriteRun(record); err != nil {
		return run, err
	}

	return run, nil
}

func (r *Runner) runStage(ctx context.Context, stage Descriptor, state *runState) StageResult {
	target := r.cfg.Target(stage.Name)
	llm := r.adapters[target.Adapter]
	start := time.Now()

	result := StageResult{
		Name:   stage.Name,
		Status: StatusSucceeded,
	}

	var err error
	switch stage.Name {
	case StageDesigner:
		result.Artifact, result.Usage, result.Attempts, err = r.runDesigner(ctx, llm, target, state)
	case StageArchitect:
		result.Artifact, result.Usage, result.Attempts, err = r.runArchitect(ctx, llm, target, state)
	case StageCoder:
		result.Artifact, result.Usage, result.Attempts, err = r.runCoder(ctx, llm, target, state)
	case StageReviewer:
		result.Artifact, result.Usage, result.Attempts, err = r.runReviewer(ctx, llm, target, state)
	default:
		err = fmt.Errorf("unknown stage %s", stage.Name)
	}

	result.Duration = time.Since(start)
	if err != nil {
		result.Status = StatusFailed
		result.Kind = fault.KindOf(err)
		result.Err = err
		result.Artifact = nil
		return result
	}

	state.artifacts[stage.Produces] = result.Artifact.Content
	return result
}

func (r *Runner) runDesigner(ctx context.Context, llm adapter.Adapter, target config.StageTarget, state *runState) (*artifact.Artifact, adapter.Usage, int, error) {
	notify(state.opts.OnProgress, StageDesigner, "fetching design data", 0.0)

	var design *figma.Design
	attempts, err := withRetry(ctx, r.cfg.Retry, func(ctx context.Context) error {
		callCtx, cancel := r.callContext(ctx)
		defer cancel()
		var fetchErr error
		design, fetchErr = r.fetcher.FetchDesign(callCtx, state.url)
		return fetchErr
	})
	if err != nil {
		return nil, adapter.Usage{}, attempts, err
	}
	state.design = design

	designer := agent.NewDesigner(llm, target.Model)
	if target.MaxTokens > 0 {
		designer.MaxTokens = target.MaxTokens
	}

	var res *agent.Result
	llmAttempts, err := withRetry(ctx, r.cfg.Retry, func(ctx context.Context) error {
		callCtx, cancel := r.callContext(ctx)
		defer cancel()
		var runErr error
		res, runErr = designer.Run(callCtx, design)
		return runErr
	})
	attempts += llmAttempts - 1
	if err != nil {
		return nil, adapter.Usage{}, attempts, err
	}

	art := artifact.New(StageDesigner, res.JSON, llm.Name(), target.Model)
	if err := state.writer.WriteArtifact("design-analysis.json", []byte(res.JSON)); err != nil {
		return nil, res.Usage, attempts, err
	}
	return art, res.Usage, attempts, nil
}

func (r *Runner) runArchitect(ctx context.Context, llm adapter.Adapter, target config.StageTarget, state *runState) (*artifact.Artifact, adapter.Usage, int, error) {
	architect := agent.NewArchitect(llm, target.Model)
	if target.MaxTokens > 0 {
		architect.MaxTokens = target.MaxTokens
	}

	var res *agent.Result
	attempts, err := withRetry(ctx, r.cfg.Retry, func(ctx context.Context) error {
		callCtx, cancel := r.callContext(ctx)
		defer cancel()
		var runErr error
		res, runErr = architect.Run(callCtx, state.artifacts[ArtifactDesignAnalysis])
		return runErr
	})
	if err != nil {
		return nil, adapter.Usage{}, attempts, err
	}

	art := artifact.New(StageArchitect, res.JSON, llm.Name(), target.Model)
	if err := state.writer.WriteArtifact("architecture.json", []byte(res.JSON)); err != nil {
		return nil, res.Usage, attempts, err
	}
	return art, res.Usage, attempts, nil
}

func (r *Runner) runCoder(ctx context.Context, llm adapter.Adapter, target config.StageTarget, state *runState) (*artifact.Artifact, adapter.Usage, int, error) {
	coder := agent.NewCoder(llm, target.Model)
	if target.MaxTokens > 0 {
		coder.MaxTokens = target.MaxTokens
	}

	var res *agent.CoderResult
	attempts, err := withRetry(ctx, r.cfg.Retry, func(ctx context.Context) error {
		callCtx, cancel := r.callContext(ctx)
		defer cancel()
		var runErr error
		res, runErr = coder.Run(callCtx, state.artifacts[ArtifactArchitecture], state.artifacts[ArtifactDesignAnalysis])
		return runErr
	})
	if err != nil {
		return nil, adapter.Usage{}, attempts, err
	}

	// The tree is written only after the output parsed cleanly; a
	// malformed_output failure above leaves the output directory absent.
	if _, err := res.Set.WriteTree(state.writer.OutputDir()); err != nil {
		return nil, res.Usage, attempts, err
	}
	state.set = res.Set

	art := artifact.New(StageCoder, res.JSON, llm.Name(), target.Model)
	return art, res.Usage, attempts, nil
}

func (r *Runner) runReviewer(ctx context.Context, llm adapter.Adapter, target config.StageTarget, state *runState) (*artifact.Artifact, adapter.Usage, int, error) {
	reviewer := agent.NewReviewer(llm, target.Model)
	if target.MaxTokens > 0 {
		reviewer.MaxTokens = target.MaxTokens
	}

	var res *agent.ReviewerResult
	attempts, err := withRetry(ctx, r.cfg.Retry, func(ctx context.Context) error {
		callCtx, cancel := r.callContext(ctx)
		defer cancel()
		var runErr error
		res, runErr = reviewer.Run(callCtx, state.set, state.artifacts[ArtifactDesignAnalysis])
		return runErr
	})
	if err != nil {
		return nil, adapter.Usage{}, attempts, err
	}
	state.review = res.Review

	art := artifact.New(StageReviewer, res.JSON, llm.Name(), target.Model)
	usage := res.Usage

	if revised, fixErr := r.applyRevisions(ctx, llm, target, state, res.Review); fixErr != nil {
		return nil, usage, attempts, fixErr
	} else if revised {
		art = art.WithMetadata("revised_files", "true")
	}

	if err := state.writer.WriteArtifact("review.json", []byte(res.JSON)); err != nil {
		return nil, usage, attempts, err
	}
	return art, usage, attempts, nil
}

// applyRevisions applies the reviewer's fixed files, or runs one coder fix
// round when auto-fix is enabled and the review was not approved. Returns
// whether the file set changed.
func (r *Runner) applyRevisions(ctx context.Context, llm adapter.Adapter, target config.StageTarget, state *runState, review *agent.Review) (bool, error) {
	if len(review.FixedFiles) > 0 {
		merged, err := state.set.Merge(review.FixedFiles)
		if err != nil {
			return false, err
		}
		if _, err := merged.WriteTree(state.writer.OutputDir()); err != nil {
			return false, err
		}
		state.set = merged
		return true, nil
	}

	if !state.opts.AutoFix || review.Approved {
		return false, nil
	}

	coderTarget := r.cfg.Target(StageCoder)
	fixLLM := r.adapters[coderTarget.Adapter]
	coder := agent.NewCoder(fixLLM, coderTarget.Model)
	if coderTarget.MaxTokens > 0 {
		coder.MaxTokens = coderTarget.MaxTokens
	}

	var res *agent.CoderResult
	_, err := withRetry(ctx, r.cfg.Retry, func(ctx context.Context) error {
		callCtx, cancel := r.callContext(ctx)
		defer cancel()
		var runErr error
		res, runErr = coder.Fix(callCtx, agent.BuildFixPrompt(review, state.set))
		return runErr
	})
	if err != nil {
		// Auto-fix is best effort; the reviewed set already persisted.
		state.logger.Warn("auto-fix round failed", "err", err)
		return false, nil
	}

	if _, err := res.Set.WriteTree(state.writer.OutputDir()); err != nil {
		return false, err
	}
	state.set = res.Set
	return true, nil
}

func (r *Runner) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := time.Duration(r.cfg.CallTimeoutSeconds) * time.Second
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *Runner) recordStage(state *runState, result StageResult) {
	target := r.cfg.Target(result.Name)
	record := runstore.StageRecord{
		Name:           result.Name,
		Status:         string(result.Status),
		Usage:          result.Usage,
		Attempts:       result.Attempts,
		DurationMillis: result.Duration.Milliseconds(),
	}
	if result.Status != StatusSkipped {
		record.Adapter = target.Adapter
		record.Model = target.Model
	}
	if result.Err != nil {
		record.Kind = string(result.Kind)
		record.Error = result.Err.Error()
	}
	if result.Artifact != nil {
		record.ArtifactHash = result.Artifact.Hash
	}
	if err := state.writer.WriteStage(record); err != nil {
		state.logger.Error("write stage record", "stage", result.Name, "err", err)
	}
}

func unmetNeeds(stage Descriptor, artifacts map[string]string) string {
	for _, need := range stage.Needs {
		if _, ok := artifacts[need]; !ok {
			return need
		}
	}
	return ""
}

func notify(fn ProgressFunc, stage, message string, fraction float64) {
	if fn != nil {
		fn(stage, message, fraction)
	}
}

func stageStartMessage(stage string) string {
	switch stage {
	case StageDesigner:
		return "designer analyzing the design"
	case StageArchitect:
		return "architect designing components"
	case StageCoder:
		return "coder generating code"
	case StageReviewer:
		return "reviewer checking quality"
	default:
		return stage
	}
}

func stageDoneMessage(stage string) string {
	switch stage {
	case StageDesigner:
		return "design analysis complete"
	case StageArchitect:
		return "component design complete"
	case StageCoder:
		return "code generation complete"
	case StageReviewer:
		return "review complete"
	default:
		return stage + " complete"
	}
}

func hashString(value string) string {
	h := sha256.Sum256([]byte(value))
	return hex.EncodeToString(h[:])
}
