package agent

import (
	"context"
	"fmt"

	"github.com/zen-systems/designflow/pkg/adapter"
)

const architectMaxTokens = 8192

// Architect turns a design analysis into a component design document.
type Architect struct {
	llm       adapter.Adapter
	model     string
	MaxTokens int64
}

// NewArchitect creates the architect agent.
func NewArchitect(llm adapter.Adapter, model string) *Architect {
	return &Architect{llm: llm, model: model, MaxTokens: architectMaxTokens}
}

// Run produces the architecture artifact from the design analysis JSON.
func (a *Architect) Run(ctx context.Context, designAnalysis string) (*Result, error) {
	prompt := fmt.Sprintf(`Create a React component design document from the design analysis below.

Design analysis:
%s

Using the color palette, typography, layout, and component inventory above,
produce the best design document for Next.js App Router + Tailwind CSS +
shadcn/ui.`, designAnalysis)

	return generateJSON(ctx, a.llm, a.model, architectSystemPrompt, prompt, a.MaxTokens)
}
