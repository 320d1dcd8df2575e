package adapter

import (
	"context"
	"fmt"
	"sync"
)

// Step scripts one mock response: either text to return or an error.
type Step struct {
	Text string
	Err  error
}

// Call records one Generate invocation for assertions.
type Call struct {
	Model  string
	System string
	Prompt string
}

// MockAdapter returns scripted responses in order. Used by pipeline and
// agent tests to exercise ordering and failure semantics deterministically.
type MockAdapter struct {
	mu    sync.Mutex
	steps []Step
	calls []Call
}

// NewMockAdapter creates a mock adapter that replays the given steps.
// When the script is exhausted the prompt is echoed back.
func NewMockAdapter(steps ...Step) *MockAdapter {
	return &MockAdapter{steps: steps}
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Generate pops the next scripted step.
func (a *MockAdapter) Generate(_ context.Context, req Request) (*Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls = append(a.calls, Call{Model: req.Model, System: req.System, Prompt: req.Prompt})

	if len(a.steps) == 0 {
		return &Response{Text: fmt.Sprintf("mock response:\n%s", req.Prompt)}, nil
	}

	step := a.steps[0]
	a.steps = a.steps[1:]
	if step.Err != nil {
		return nil, step.Err
	}
	return &Response{Text: step.Text}, nil
}

// Calls returns a copy of the recorded invocations.
func (a *MockAdapter) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Call, len(a.calls))
	copy(out, a.calls)
	return out
}
