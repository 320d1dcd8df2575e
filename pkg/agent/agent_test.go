package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/zen-systems/designflow/pkg/adapter"
	"github.com/zen-systems/designflow/pkg/fault"
	"github.com/zen-systems/designflow/pkg/figma"
	"github.com/zen-systems/designflow/pkg/fileset"
)

func TestDesignerBuildsPromptFromDesign(t *testing.T) {
	mock := adapter.NewMockAdapter(adapter.Step{Text: "```json\n{\"design_summary\": \"ok\"}\n```"})
	designer := NewDesigner(mock, "mock-1")

	design := &figma.Design{
		Name:   "Landing Page",
		Colors: []string{"#ffffff"},
		Fonts:  []figma.Font{{Family: "Inter", Size: 16, Weight: 400}},
		Components: []figma.Component{
			{Name: "Hero", Type: "FRAME"},
		},
	}

	result, err := designer.Run(context.Background(), design)
	if err != nil {
		t.Fatalf("run designer: %v", err)
	}
	if result.JSON != `{"design_summary": "ok"}` {
		t.Fatalf("unexpected artifact: %q", result.JSON)
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 adapter call, got %d", len(calls))
	}
	if !strings.Contains(calls[0].Prompt, "Landing Page") {
		t.Fatalf("prompt missing file name: %q", calls[0].Prompt)
	}
	if !strings.Contains(calls[0].Prompt, "#ffffff") {
		t.Fatalf("prompt missing colors: %q", calls[0].Prompt)
	}
	if calls[0].System == "" {
		t.Fatalf("expected a system prompt")
	}
}

func TestDesignerCapsComponentList(t *testing.T) {
	mock := adapter.NewMockAdapter(adapter.Step{Text: `{"design_summary": "ok"}`})
	designer := NewDesigner(mock, "mock-1")

	components := make([]figma.Component, 40)
	for i := range components {
		components[i] = figma.Component{Name: "C", Type: "FRAME"}
	}

	if _, err := designer.Run(context.Background(), &figma.Design{Name: "Big", Components: components}); err != nil {
		t.Fatalf("run designer: %v", err)
	}

	prompt := mock.Calls()[0].Prompt
	if !strings.Contains(prompt, "top 30") {
		t.Fatalf("component cap not reflected in prompt: %q", prompt)
	}
}

func TestCoderParsesFileSet(t *testing.T) {
	mock := adapter.NewMockAdapter(adapter.Step{Text: `{"files": [{"path": "src/a.tsx", "content": "aaa"}]}`})
	coder := NewCoder(mock, "mock-1")

	result, err := coder.Run(context.Background(), `{"components": []}`, `{"color_palette": {}}`)
	if err != nil {
		t.Fatalf("run coder: %v", err)
	}
	if len(result.Set.Files) != 1 || result.Set.Files[0].Path != "src/a.tsx" {
		t.Fatalf("unexpected file set: %+v", result.Set)
	}
}

func TestCoderRejectsUnparsableOutput(t *testing.T) {
	mock := adapter.NewMockAdapter(adapter.Step{Text: `{"files": "not an array"}`})
	coder := NewCoder(mock, "mock-1")

	_, err := coder.Run(context.Background(), `{}`, `{}`)
	if err == nil {
		t.Fatalf("expected error")
	}
	if fault.KindOf(err) != fault.KindMalformedOutput {
		t.Fatalf("expected malformed_output, got %s", fault.KindOf(err))
	}
}

func TestCoderPropagatesAdapterErrors(t *testing.T) {
	mock := adapter.NewMockAdapter(adapter.Step{Err: fault.Newf(fault.KindRateLimit, "throttled")})
	coder := NewCoder(mock, "mock-1")

	_, err := coder.Run(context.Background(), `{}`, `{}`)
	if fault.KindOf(err) != fault.KindRateLimit {
		t.Fatalf("expected rate_limit to propagate unchanged, got %v", err)
	}
}

func TestReviewerParsesReview(t *testing.T) {
	mock := adapter.NewMockAdapter(adapter.Step{Text: `{
		"score": 85,
		"approved": true,
		"summary": "solid",
		"issues": [{"severity": "info", "file": "src/a.tsx", "description": "minor"}]
	}`})
	reviewer := NewReviewer(mock, "mock-1")

	set := &fileset.Set{Files: []fileset.File{{Path: "src/a.tsx", Content: "aaa"}}}
	result, err := reviewer.Run(context.Background(), set, `{"components": [{"name": "Hero"}]}`)
	if err != nil {
		t.Fatalf("run reviewer: %v", err)
	}
	if result.Review.Score != 85 || !result.Review.Approved {
		t.Fatalf("unexpected review: %+v", result.Review)
	}
	if len(result.Review.Issues) != 1 {
		t.Fatalf("issues not parsed: %+v", result.Review)
	}

	prompt := mock.Calls()[0].Prompt
	if !strings.Contains(prompt, "src/a.tsx") {
		t.Fatalf("prompt missing file set: %q", prompt)
	}
	if !strings.Contains(prompt, "Hero") {
		t.Fatalf("prompt missing component names: %q", prompt)
	}
}

func TestBuildFixPromptNamesIssues(t *testing.T) {
	review := &Review{
		Score: 60,
		Issues: []Issue{
			{Severity: "critical", File: "src/a.tsx", Description: "missing aria-label", Suggestion: "add aria-label"},
		},
		Improvements: []string{"use semantic headings"},
	}
	set := &fileset.Set{Files: []fileset.File{{Path: "src/a.tsx", Content: "<button/>"}}}

	prompt := BuildFixPrompt(review, set)
	for _, want := range []string{"src/a.tsx", "missing aria-label", "add aria-label", "use semantic headings"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("fix prompt missing %q:\n%s", want, prompt)
		}
	}
}
