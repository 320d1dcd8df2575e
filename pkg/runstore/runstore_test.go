package runstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriterLayout(t *testing.T) {
	base := t.TempDir()
	w, err := NewWriter(base, "run-1")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	if err := w.WriteRun(RunRecord{ID: "run-1", Timestamp: time.Now().UTC(), URL: "https://www.figma.com/file/abc/X"}); err != nil {
		t.Fatalf("write run: %v", err)
	}
	if err := w.WriteStage(StageRecord{Name: "designer", Status: "succeeded"}); err != nil {
		t.Fatalf("write stage: %v", err)
	}
	if err := w.WriteArtifact("design-analysis.json", []byte(`{"design_summary": "ok"}`)); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	for _, rel := range []string{"run.json", "stages/designer.json", "design-analysis.json"} {
		if _, err := os.Stat(filepath.Join(base, "run-1", rel)); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}

	data, err := w.ReadArtifact("design-analysis.json")
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != `{"design_summary": "ok"}` {
		t.Fatalf("artifact roundtrip mismatch: %q", data)
	}
}

func TestWriteStageRecordShape(t *testing.T) {
	base := t.TempDir()
	w, err := NewWriter(base, "run-2")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}

	record := StageRecord{
		Name:           "architect",
		Status:         "failed",
		Kind:           "rate_limit",
		Error:          "throttled",
		DurationMillis: 42,
	}
	if err := w.WriteStage(record); err != nil {
		t.Fatalf("write stage: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(w.RunDir(), "stages", "architect.json"))
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	var got StageRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if got.Kind != "rate_limit" || got.Status != "failed" {
		t.Fatalf("record mismatch: %+v", got)
	}
}

func TestWriterRejectsBadInput(t *testing.T) {
	if _, err := NewWriter("", "run"); err == nil {
		t.Fatalf("expected error for empty base dir")
	}
	if _, err := NewWriter(t.TempDir(), ""); err == nil {
		t.Fatalf("expected error for empty run ID")
	}

	w, err := NewWriter(t.TempDir(), "run")
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteArtifact("../escape.json", []byte("x")); err == nil {
		t.Fatalf("expected error for escaping artifact name")
	}
	if err := w.WriteStage(StageRecord{}); err == nil {
		t.Fatalf("expected error for unnamed stage record")
	}
}
