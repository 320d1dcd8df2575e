package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zen-systems/designflow/pkg/adapter"
	"github.com/zen-systems/designflow/pkg/config"
	"github.com/zen-systems/designflow/pkg/fault"
	"github.com/zen-systems/designflow/pkg/figma"
)

const testDesignURL = "https://www.figma.com/design/aBc123XyZ/landing"

var (
	designerJSON = `{"style_summary":"clean","color_palette":{"primary":["#112233"]},"typography":{"heading_font":"Inter"},"components":[{"name":"Hero"}]}`

	architectJSON = `{"components":[{"name":"Hero","type":"section","props":[]}],"page_structure":["Hero"]}`

	coderJSON = `{"files":[{"path":"src/App.tsx","content":"export default function App() { return null }"},{"path":"src/components/Hero.tsx","content":"export function Hero() { return null }"}],"dependencies":["react"]}`

	reviewJSON = `{"score":88,"approved":true,"summary":"matches the design"}`
)

type stubFetcher struct {
	design *figma.Design
	err    error
	calls  int
}

func (s *stubFetcher) FetchDesign(ctx context.Context, rawURL string) (*figma.Design, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.design, nil
}

func testFetcher() *stubFetcher {
	return &stubFetcher{design: &figma.Design{
		FileKey: "aBc123XyZ",
		Name:    "Landing Page",
		Colors:  []string{"#112233"},
	}}
}

func testStagesConfig() *config.StagesConfig {
	cfg := config.DefaultStagesConfig()
	cfg.Default.Adapter = "mock"
	cfg.Default.Model = "mock-1"
	cfg.Retry = config.RetryConfig{MaxRetries: 0, BaseBackoffMs: 1, MaxBackoffMs: 1}
	return cfg
}

func newTestRunner(t *testing.T, fetcher DesignFetcher, mock *adapter.MockAdapter, cfg *config.StagesConfig) *Runner {
	t.Helper()
	r, err := NewRunner(fetcher, map[string]adapter.Adapter{"mock": mock}, cfg)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func TestRunAllStagesSucceed(t *testing.T) {
	mock := adapter.NewMockAdapter(
		adapter.Step{Text: designerJSON},
		adapter.Step{Text: architectJSON},
		adapter.Step{Text: coderJSON},
		adapter.Step{Text: reviewJSON},
	)
	runner := newTestRunner(t, testFetcher(), mock, testStagesConfig())

	run, err := runner.Run(context.Background(), testDesignURL, Options{RunsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !run.Success() {
		t.Fatalf("run should succeed, failed stage: %+v", run.FailedStage())
	}
	if len(run.Stages) != 4 {
		t.Fatalf("stages = %d, want 4", len(run.Stages))
	}
	for i, want := range []string{StageDesigner, StageArchitect, StageCoder, StageReviewer} {
		if run.Stages[i].Name != want {
			t.Fatalf("stage %d = %s, want %s", i, run.Stages[i].Name, want)
		}
	}

	for _, name := range []string{"design-analysis.json", "architecture.json", "review.json", "run.json"} {
		if _, err := os.Stat(filepath.Join(run.Dir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(run.Dir, "output", "src", "App.tsx"))
	if err != nil {
		t.Fatalf("read generated file: %v", err)
	}
	if !strings.Contains(string(data), "export default function App") {
		t.Fatalf("unexpected generated content: %q", data)
	}

	if run.Review == nil || !run.Review.Approved || run.Review.Score != 88 {
		t.Fatalf("review = %+v", run.Review)
	}
	if run.FileSet == nil || len(run.FileSet.Files) != 2 {
		t.Fatalf("file set = %+v", run.FileSet)
	}
}

func TestRunFetchNotFoundHaltsPipeline(t *testing.T) {
	fetcher := &stubFetcher{err: fault.Newf(fault.KindNotFound, "file not found")}
	mock := adapter.NewMockAdapter()
	runner := newTestRunner(t, fetcher, mock, testStagesConfig())

	run, err := runner.Run(context.Background(), testDesignURL, Options{RunsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Success() {
		t.Fatal("run should fail when the design cannot be fetched")
	}

	designer := run.Stage(StageDesigner)
	if designer.Status != StatusFailed || designer.Kind != fault.KindNotFound {
		t.Fatalf("designer = %+v", designer)
	}
	for _, name := range []string{StageArchitect, StageCoder, StageReviewer} {
		if got := run.Stage(name).Status; got != StatusSkipped {
			t.Fatalf("stage %s status = %s, want skipped", name, got)
		}
	}
	if len(mock.Calls()) != 0 {
		t.Fatalf("no model call should happen after a fetch failure, got %d", len(mock.Calls()))
	}
	if _, err := os.Stat(filepath.Join(run.Dir, "architecture.json")); !os.IsNotExist(err) {
		t.Fatal("no downstream artifact should exist")
	}
}

func TestRunArchitectFailureSkipsDownstream(t *testing.T) {
	mock := adapter.NewMockAdapter(
		adapter.Step{Text: designerJSON},
		adapter.Step{Err: fault.Newf(fault.KindAuth, "invalid api key")},
	)
	runner := newTestRunner(t, testFetcher(), mock, testStagesConfig())

	run, err := runner.Run(context.Background(), testDesignURL, Options{RunsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	architect := run.Stage(StageArchitect)
	if architect.Status != StatusFailed || architect.Kind != fault.KindAuth {
		t.Fatalf("architect = %+v", architect)
	}
	if got := run.Stage(StageCoder).Status; got != StatusSkipped {
		t.Fatalf("coder status = %s, want skipped", got)
	}
	if got := run.Stage(StageReviewer).Status; got != StatusSkipped {
		t.Fatalf("reviewer status = %s, want skipped", got)
	}
	if calls := len(mock.Calls()); calls != 2 {
		t.Fatalf("model calls = %d, want 2", calls)
	}
}

func TestRunMalformedCoderOutputWritesNoFiles(t *testing.T) {
	mock := adapter.NewMockAdapter(
		adapter.Step{Text: designerJSON},
		adapter.Step{Text: architectJSON},
		adapter.Step{Text: "I could not generate the code, sorry."},
	)
	runner := newTestRunner(t, testFetcher(), mock, testStagesConfig())

	run, err := runner.Run(context.Background(), testDesignURL, Options{RunsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	coder := run.Stage(StageCoder)
	if coder.Status != StatusFailed || coder.Kind != fault.KindMalformedOutput {
		t.Fatalf("coder = %+v", coder)
	}
	if got := run.Stage(StageReviewer).Status; got != StatusSkipped {
		t.Fatalf("reviewer status = %s, want skipped", got)
	}
	if _, err := os.Stat(filepath.Join(run.Dir, "output")); !os.IsNotExist(err) {
		t.Fatal("output directory must not exist after a malformed coder response")
	}
	if run.FileSet != nil {
		t.Fatal("no file set should be recorded")
	}
}

func TestRunRetriesTransientFailures(t *testing.T) {
	mock := adapter.NewMockAdapter(
		adapter.Step{Err: fault.Newf(fault.KindRateLimit, "throttled")},
		adapter.Step{Text: designerJSON},
		adapter.Step{Text: architectJSON},
		adapter.Step{Text: coderJSON},
		adapter.Step{Text: reviewJSON},
	)
	cfg := testStagesConfig()
	cfg.Retry = config.RetryConfig{MaxRetries: 1, BaseBackoffMs: 1, MaxBackoffMs: 2}
	runner := newTestRunner(t, testFetcher(), mock, cfg)

	run, err := runner.Run(context.Background(), testDesignURL, Options{RunsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !run.Success() {
		t.Fatalf("run should succeed after retry, failed stage: %+v", run.FailedStage())
	}
	if got := run.Stage(StageDesigner).Attempts; got != 2 {
		t.Fatalf("designer attempts = %d, want 2", got)
	}
}

func TestRunAppliesReviewerFixedFiles(t *testing.T) {
	fixedReview := `{"score":72,"approved":false,"summary":"fixed an import",` +
		`"fixed_files":[{"path":"src/App.tsx","content":"export default function App() { return <main /> }"}]}`
	mock := adapter.NewMockAdapter(
		adapter.Step{Text: designerJSON},
		adapter.Step{Text: architectJSON},
		adapter.Step{Text: coderJSON},
		adapter.Step{Text: fixedReview},
	)
	runner := newTestRunner(t, testFetcher(), mock, testStagesConfig())

	run, err := runner.Run(context.Background(), testDesignURL, Options{RunsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !run.Success() {
		t.Fatalf("run should succeed, failed stage: %+v", run.FailedStage())
	}

	content, ok := run.FileSet.Content("src/App.tsx")
	if !ok || !strings.Contains(content, "<main />") {
		t.Fatalf("fixed file not applied: %q", content)
	}

	data, err := os.ReadFile(filepath.Join(run.Dir, "output", "src", "App.tsx"))
	if err != nil {
		t.Fatalf("read generated file: %v", err)
	}
	if !strings.Contains(string(data), "<main />") {
		t.Fatalf("disk copy not updated: %q", data)
	}
}

func TestRunAutoFixRegeneratesFiles(t *testing.T) {
	rejectedReview := `{"score":40,"approved":false,"summary":"broken layout",` +
		`"issues":[{"severity":"major","file":"src/App.tsx","description":"missing layout wrapper"}]}`
	fixedCoderJSON := `{"files":[{"path":"src/App.tsx","content":"export default function App() { return <div id=\"fixed\" /> }"}]}`
	mock := adapter.NewMockAdapter(
		adapter.Step{Text: designerJSON},
		adapter.Step{Text: architectJSON},
		adapter.Step{Text: coderJSON},
		adapter.Step{Text: rejectedReview},
		adapter.Step{Text: fixedCoderJSON},
	)
	runner := newTestRunner(t, testFetcher(), mock, testStagesConfig())

	run, err := runner.Run(context.Background(), testDesignURL, Options{RunsDir: t.TempDir(), AutoFix: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !run.Success() {
		t.Fatalf("run should succeed, failed stage: %+v", run.FailedStage())
	}
	if calls := len(mock.Calls()); calls != 5 {
		t.Fatalf("model calls = %d, want 5 (four stages plus one fix round)", calls)
	}

	content, ok := run.FileSet.Content("src/App.tsx")
	if !ok || !strings.Contains(content, "fixed") {
		t.Fatalf("regenerated file not applied: %q", content)
	}
}

func TestRunCancelledContextSkipsAllStages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := adapter.NewMockAdapter()
	runner := newTestRunner(t, testFetcher(), mock, testStagesConfig())

	run, err := runner.Run(ctx, testDesignURL, Options{RunsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if run.Success() {
		t.Fatal("cancelled run must not succeed")
	}
	for _, stage := range run.Stages {
		if stage.Status != StatusSkipped {
			t.Fatalf("stage %s status = %s, want skipped", stage.Name, stage.Status)
		}
	}
	if len(mock.Calls()) != 0 {
		t.Fatal("no model call should happen after cancellation")
	}
}

func TestRunReportsProgress(t *testing.T) {
	mock := adapter.NewMockAdapter(
		adapter.Step{Text: designerJSON},
		adapter.Step{Text: architectJSON},
		adapter.Step{Text: coderJSON},
		adapter.Step{Text: reviewJSON},
	)
	runner := newTestRunner(t, testFetcher(), mock, testStagesConfig())

	var stages []string
	var last float64
	_, err := runner.Run(context.Background(), testDesignURL, Options{
		RunsDir: t.TempDir(),
		OnProgress: func(stage, message string, fraction float64) {
			stages = append(stages, stage)
			if fraction > last {
				last = fraction
			}
		},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(stages) == 0 || stages[0] != StageDesigner {
		t.Fatalf("progress should start with the designer stage, got %v", stages)
	}
	if last != 1.0 {
		t.Fatalf("final progress fraction = %v, want 1.0", last)
	}
}

func TestRunStructureIsDeterministic(t *testing.T) {
	script := func() *adapter.MockAdapter {
		return adapter.NewMockAdapter(
			adapter.Step{Text: designerJSON},
			adapter.Step{Text: architectJSON},
			adapter.Step{Text: coderJSON},
			adapter.Step{Text: reviewJSON},
		)
	}

	var runs [2]*Run
	for i := range runs {
		runner := newTestRunner(t, testFetcher(), script(), testStagesConfig())
		run, err := runner.Run(context.Background(), testDesignURL, Options{RunsDir: t.TempDir()})
		if err != nil {
			t.Fatalf("Run %d: %v", i, err)
		}
		runs[i] = run
	}

	for i := range runs[0].Stages {
		a, b := runs[0].Stages[i], runs[1].Stages[i]
		if a.Name != b.Name || a.Status != b.Status {
			t.Fatalf("stage %d differs: %s/%s vs %s/%s", i, a.Name, a.Status, b.Name, b.Status)
		}
		if a.Artifact.Content != b.Artifact.Content {
			t.Fatalf("stage %s artifact content differs across runs", a.Name)
		}
	}

	first, second := runs[0].FileSet.Paths(), runs[1].FileSet.Paths()
	if len(first) != len(second) {
		t.Fatalf("file sets differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("file sets differ: %v vs %v", first, second)
		}
	}
}

func TestNewRunnerRejectsMissingAdapter(t *testing.T) {
	cfg := testStagesConfig()
	cfg.Default.Adapter = "openai"

	_, err := NewRunner(testFetcher(), map[string]adapter.Adapter{"mock": adapter.NewMockAdapter()}, cfg)
	if err == nil {
		t.Fatal("expected error for unconfigured adapter")
	}
}
