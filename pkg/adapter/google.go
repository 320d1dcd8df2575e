package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/zen-systems/designflow/pkg/fault"
	"google.golang.org/genai"
)

// GoogleAdapter implements the Adapter interface for Gemini models.
type GoogleAdapter struct {
	client *genai.Client
}

// NewGoogleAdapter creates a new Google Gemini adapter.
func NewGoogleAdapter(apiKey string) (*GoogleAdapter, error) {
	if apiKey == "" {
		return nil, fault.Newf(fault.KindAuth, "google API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fault.Newf(fault.KindAuth, "failed to create google client: %v", err)
	}

	return &GoogleAdapter{client: client}, nil
}

// Name returns the adapter identifier.
func (a *GoogleAdapter) Name() string {
	return "google"
}

// Models returns the list of supported Gemini models.
func (a *GoogleAdapter) Models() []string {
	return []string{
		"gemini-2.0-pro",
	}
}

// Generate sends a prompt to Gemini and returns the completion.
func (a *GoogleAdapter) Generate(ctx context.Context, req Request) (*Response, error) {
	maxTokens := int32(maxTokensOrDefault(req))
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: maxTokens,
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := a.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), config)
	if err != nil {
		return nil, classifyGoogle(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fault.Newf(fault.KindModel, "google returned no candidates")
	}

	var content string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				content += part.Text
			}
		}
	}

	out := &Response{Text: content}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

func classifyGoogle(err error) error {
	var apierr genai.APIError
	if errors.As(err, &apierr) {
		return fault.WithStatus(fault.FromStatus(apierr.Code), apierr.Code, fmt.Errorf("google API error: %w", err))
	}
	return fault.New(fault.KindModel, fmt.Errorf("google API error: %w", err))
}
