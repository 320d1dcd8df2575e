package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zen-systems/designflow/pkg/adapter"
	"github.com/zen-systems/designflow/pkg/fileset"
)

const coderMaxTokens = 16384

// Coder generates the file set from the architecture and design analysis.
type Coder struct {
	llm       adapter.Adapter
	model     string
	MaxTokens int64
}

// CoderResult bundles the parsed file set with the raw artifact.
type CoderResult struct {
	Result
	Set *fileset.Set
}

// NewCoder creates the coder agent.
func NewCoder(llm adapter.Adapter, model string) *Coder {
	return &Coder{llm: llm, model: model, MaxTokens: coderMaxTokens}
}

// Run generates code for every component in the architecture. The model
// output must parse into a valid file set; otherwise the stage fails with
// a malformed_output fault and nothing is written downstream.
func (c *Coder) Run(ctx context.Context, architecture, designAnalysis string) (*CoderResult, error) {
	result, err := generateJSON(ctx, c.llm, c.model, coderSystemPrompt, buildCoderPrompt(architecture, designAnalysis), c.MaxTokens)
	if err != nil {
		return nil, err
	}

	set, err := fileset.Parse(result.JSON)
	if err != nil {
		return nil, err
	}

	return &CoderResult{Result: *result, Set: set}, nil
}

// Fix asks the model to regenerate the file set with the review issues
// resolved. Used by the optional auto-fix round.
func (c *Coder) Fix(ctx context.Context, fixPrompt string) (*CoderResult, error) {
	result, err := generateJSON(ctx, c.llm, c.model, coderSystemPrompt, fixPrompt, c.MaxTokens)
	if err != nil {
		return nil, err
	}

	set, err := fileset.Parse(result.JSON)
	if err != nil {
		return nil, err
	}

	return &CoderResult{Result: *result, Set: set}, nil
}

func buildCoderPrompt(architecture, designAnalysis string) string {
	return fmt.Sprintf(`Generate production-quality React/Next.js code from the component design
document and design tokens below.

Component design document:
%s

Design tokens:
%s

Generate TSX code for every component in the design document. Each component
must be complete and working.`, architecture, designTokens(designAnalysis))
}

// designTokens trims the design analysis to the sections the coder needs.
func designTokens(designAnalysis string) string {
	var full map[string]json.RawMessage
	if err := json.Unmarshal([]byte(designAnalysis), &full); err != nil {
		return designAnalysis
	}

	tokens := make(map[string]json.RawMessage, 4)
	for _, key := range []string{"color_palette", "typography", "spacing", "layout"} {
		if v, ok := full[key]; ok {
			tokens[key] = v
		}
	}

	out, err := json.MarshalIndent(tokens, "", "  ")
	if err != nil {
		return designAnalysis
	}
	return string(out)
}
