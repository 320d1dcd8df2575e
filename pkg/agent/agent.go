// Package agent implements the four pipeline stage agents. Each agent is a
// stateless function of its upstream artifacts: it builds a stage prompt,
// calls the model adapter once, and returns the extracted JSON artifact.
package agent

import (
	"context"

	"github.com/zen-systems/designflow/pkg/adapter"
)

// Result is the common output of a stage agent call.
type Result struct {
	JSON  string
	Raw   string
	Usage adapter.Usage
}

func generateJSON(ctx context.Context, llm adapter.Adapter, model, system, prompt string, maxTokens int64) (*Result, error) {
	resp, err := llm.Generate(ctx, adapter.Request{
		Model:     model,
		System:    system,
		Prompt:    prompt,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, err
	}

	extracted, err := ExtractJSON(resp.Text)
	if err != nil {
		return nil, err
	}

	return &Result{JSON: extracted, Raw: resp.Text, Usage: resp.Usage}, nil
}
