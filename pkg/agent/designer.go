package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/zen-systems/designflow/pkg/adapter"
	"github.com/zen-systems/designflow/pkg/figma"
)

const designerMaxTokens = 4096

// Designer analyzes raw Figma design data into a structured design analysis.
type Designer struct {
	llm       adapter.Adapter
	model     string
	MaxTokens int64
}

// NewDesigner creates the designer agent.
func NewDesigner(llm adapter.Adapter, model string) *Designer {
	return &Designer{llm: llm, model: model, MaxTokens: designerMaxTokens}
}

// Run produces the design analysis artifact from fetched design data.
func (d *Designer) Run(ctx context.Context, design *figma.Design) (*Result, error) {
	return generateJSON(ctx, d.llm, d.model, designerSystemPrompt, buildDesignerPrompt(design), d.MaxTokens)
}

func buildDesignerPrompt(design *figma.Design) string {
	// Cap the component list to keep the prompt inside the token budget.
	components := design.Components
	if len(components) > 30 {
		components = components[:30]
	}

	colors, _ := json.MarshalIndent(design.Colors, "", "  ")
	fonts, _ := json.MarshalIndent(design.Fonts, "", "  ")
	topComponents, _ := json.MarshalIndent(components, "", "  ")

	return fmt.Sprintf(`Analyze the following Figma design data.

File name:
%s

Colors in use:
%s

Fonts in use:
%s

Component structure (top %d):
%s

Produce the structured design analysis for the data above.`,
		design.Name, colors, fonts, len(components), topComponents)
}
