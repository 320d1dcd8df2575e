// Package runstore persists pipeline run artifacts: one directory per run
// holding the run record, per-stage records, each stage's named artifact,
// and the generated output tree.
package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zen-systems/designflow/pkg/adapter"
	"github.com/zen-systems/designflow/pkg/fault"
)

// RunRecord captures run-level metadata.
type RunRecord struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	URL       string    `json:"url"`
	InputHash string    `json:"input_hash,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// StageRecord captures the outcome of a single stage.
type StageRecord struct {
	Name           string        `json:"name"`
	Status         string        `json:"status"`
	Adapter        string        `json:"adapter,omitempty"`
	Model          string        `json:"model,omitempty"`
	Kind           string        `json:"kind,omitempty"`
	Error          string        `json:"error,omitempty"`
	ArtifactHash   string        `json:"artifact_hash,omitempty"`
	Usage          adapter.Usage `json:"usage,omitempty"`
	Attempts       int           `json:"attempts,omitempty"`
	DurationMillis int64         `json:"duration_ms"`
}

// Writer writes one run's artifacts to disk.
type Writer struct {
	baseDir string
	runDir  string
}

// NewWriter creates a writer rooted at baseDir/runID.
func NewWriter(baseDir, runID string) (*Writer, error) {
	if baseDir == "" {
		return nil, fault.Newf(fault.KindIO, "base directory is required")
	}
	if runID == "" {
		return nil, fault.Newf(fault.KindIO, "run ID is required")
	}

	runDir := filepath.Join(baseDir, runID)
	for _, dir := range []string{runDir, filepath.Join(runDir, "stages")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fault.New(fault.KindIO, err)
		}
	}

	return &Writer{baseDir: baseDir, runDir: runDir}, nil
}

// RunDir returns the run directory path.
func (w *Writer) RunDir() string {
	return w.runDir
}

// OutputDir returns the directory the coder's file tree is written under.
func (w *Writer) OutputDir() string {
	return filepath.Join(w.runDir, "output")
}

// WriteRun writes run metadata to run.json.
func (w *Writer) WriteRun(record RunRecord) error {
	return writeJSON(filepath.Join(w.runDir, "run.json"), record)
}

// WriteStage writes a stage record to stages/<stage>.json.
func (w *Writer) WriteStage(record StageRecord) error {
	if record.Name == "" {
		return fault.Newf(fault.KindIO, "stage record requires a name")
	}
	path := filepath.Join(w.runDir, "stages", fmt.Sprintf("%s.json", record.Name))
	return writeJSON(path, record)
}

// WriteArtifact writes a named stage artifact at the run root, e.g.
// design-analysis.json.
func (w *Writer) WriteArtifact(name string, content []byte) error {
	if name == "" || name != filepath.Base(name) {
		return fault.Newf(fault.KindIO, "invalid artifact name %q", name)
	}
	if err := os.WriteFile(filepath.Join(w.runDir, name), content, 0644); err != nil {
		return fault.New(fault.KindIO, err)
	}
	return nil
}

// ReadArtifact reads back a named artifact.
func (w *Writer) ReadArtifact(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(w.runDir, name))
	if err != nil {
		return nil, fault.New(fault.KindIO, err)
	}
	return data, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fault.New(fault.KindIO, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fault.New(fault.KindIO, err)
	}
	return nil
}
