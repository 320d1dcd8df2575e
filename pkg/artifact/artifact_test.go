package artifact

import "testing"

func TestNewComputesHash(t *testing.T) {
	a := New("designer", "analysis text", "anthropic", "claude-sonnet-4-20250514")
	if a.Hash == "" {
		t.Fatalf("expected non-empty hash")
	}
	if a.Version != 1 {
		t.Fatalf("expected version 1, got %d", a.Version)
	}
	if a.Stage != "designer" {
		t.Fatalf("unexpected stage: %q", a.Stage)
	}

	b := New("designer", "analysis text", "anthropic", "claude-sonnet-4-20250514")
	if a.Hash != b.Hash {
		t.Fatalf("identical inputs should hash identically")
	}
}

func TestNewVersionPreservesIdentity(t *testing.T) {
	a := New("coder", "v1 files", "anthropic", "claude-sonnet-4-20250514")
	b := a.NewVersion("v2 files")

	if b.ID != a.ID {
		t.Fatalf("new version should keep the artifact ID")
	}
	if b.Version != 2 {
		t.Fatalf("expected version 2, got %d", b.Version)
	}
	if b.Hash == a.Hash {
		t.Fatalf("changed content must change the hash")
	}
	if a.Content != "v1 files" {
		t.Fatalf("original artifact mutated")
	}
}

func TestWithMetadataCopies(t *testing.T) {
	a := New("reviewer", "review", "mock", "mock-1")
	b := a.WithMetadata("score", "85")

	if _, ok := a.Metadata["score"]; ok {
		t.Fatalf("original metadata mutated")
	}
	if b.Metadata["score"] != "85" {
		t.Fatalf("metadata not set on copy")
	}
}
