package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zen-systems/designflow/pkg/adapter"
	"github.com/zen-systems/designflow/pkg/fault"
	"github.com/zen-systems/designflow/pkg/fileset"
)

const reviewerMaxTokens = 4096

// Review is the reviewer's structured verdict on the generated code.
type Review struct {
	Score        int                 `json:"score"`
	Approved     bool                `json:"approved"`
	Summary      string              `json:"summary"`
	Categories   map[string]Category `json:"categories,omitempty"`
	Issues       []Issue             `json:"issues,omitempty"`
	Improvements []string            `json:"improvements,omitempty"`
	FixedFiles   []fileset.File      `json:"fixed_files,omitempty"`
}

// Category is one scored review dimension.
type Category struct {
	Score int    `json:"score"`
	Notes string `json:"notes"`
}

// Issue is one problem found during review.
type Issue struct {
	Severity    string `json:"severity"`
	File        string `json:"file,omitempty"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion,omitempty"`
}

// Reviewer checks the generated file set against the design analysis.
type Reviewer struct {
	llm       adapter.Adapter
	model     string
	MaxTokens int64
}

// ReviewerResult bundles the parsed review with the raw artifact.
type ReviewerResult struct {
	Result
	Review *Review
}

// NewReviewer creates the reviewer agent.
func NewReviewer(llm adapter.Adapter, model string) *Reviewer {
	return &Reviewer{llm: llm, model: model, MaxTokens: reviewerMaxTokens}
}

// Run reviews the generated code against the design analysis.
func (r *Reviewer) Run(ctx context.Context, set *fileset.Set, designAnalysis string) (*ReviewerResult, error) {
	result, err := generateJSON(ctx, r.llm, r.model, reviewerSystemPrompt, buildReviewerPrompt(set, designAnalysis), r.MaxTokens)
	if err != nil {
		return nil, err
	}

	var review Review
	if err := json.Unmarshal([]byte(result.JSON), &review); err != nil {
		return nil, fault.New(fault.KindMalformedOutput, fmt.Errorf("decode review: %w", err))
	}

	return &ReviewerResult{Result: *result, Review: &review}, nil
}

func buildReviewerPrompt(set *fileset.Set, designAnalysis string) string {
	files, _ := json.MarshalIndent(set.Files, "", "  ")

	return fmt.Sprintf(`Review the generated code below.

Generated code:
%s

Original design analysis:
%s

Evaluate code quality, design fidelity, accessibility, and responsive
behavior as a whole.`, files, reviewContext(designAnalysis))
}

// reviewContext trims the design analysis to the palette, typography, and
// component names the reviewer compares against.
func reviewContext(designAnalysis string) string {
	var full struct {
		ColorPalette json.RawMessage `json:"color_palette"`
		Typography   json.RawMessage `json:"typography"`
		Components   []struct {
			Name string `json:"name"`
		} `json:"components"`
	}
	if err := json.Unmarshal([]byte(designAnalysis), &full); err != nil {
		return designAnalysis
	}

	names := make([]string, 0, len(full.Components))
	for _, c := range full.Components {
		names = append(names, c.Name)
	}

	out, err := json.MarshalIndent(map[string]any{
		"color_palette": full.ColorPalette,
		"typography":    full.Typography,
		"components":    names,
	}, "", "  ")
	if err != nil {
		return designAnalysis
	}
	return string(out)
}
