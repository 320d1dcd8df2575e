// Package adapter wraps the LLM completion APIs behind a common interface.
// Each provider maps its failure modes onto the shared fault kinds so the
// pipeline can distinguish auth, throttling, and model errors.
package adapter

import "context"

// Request describes a single completion call.
type Request struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int64
}

// Response carries the generated text plus normalized token usage.
type Response struct {
	Text  string
	Usage Usage
}

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Adapter defines the interface for LLM provider adapters.
type Adapter interface {
	// Generate sends a prompt to the model and returns the completion.
	Generate(ctx context.Context, req Request) (*Response, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}

const defaultMaxTokens = 4096

func maxTokensOrDefault(req Request) int64 {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}
