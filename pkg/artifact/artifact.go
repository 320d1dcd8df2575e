// Package artifact defines the immutable record of a single model output.
package artifact

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// Artifact represents an immutable, versioned output from an LLM stage.
type Artifact struct {
	ID        string            `json:"id"`
	Version   int               `json:"version"`
	Stage     string            `json:"stage"`
	Content   string            `json:"content"`
	Adapter   string            `json:"adapter"`
	Model     string            `json:"model"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Hash      string            `json:"hash"`
}

// New creates an Artifact with a computed content hash.
func New(stage, content, adapter, model string) *Artifact {
	a := &Artifact{
		ID:        generateID(),
		Version:   1,
		Stage:     stage,
		Content:   content,
		Adapter:   adapter,
		Model:     model,
		Metadata:  make(map[string]string),
		CreatedAt: time.Now().UTC(),
	}
	a.Hash = a.computeHash()
	return a
}

// NewVersion creates the next version of the artifact with updated content.
// Used when the reviewer's auto-fix replaces the coder output.
func (a *Artifact) NewVersion(content string) *Artifact {
	next := &Artifact{
		ID:        a.ID,
		Version:   a.Version + 1,
		Stage:     a.Stage,
		Content:   content,
		Adapter:   a.Adapter,
		Model:     a.Model,
		Metadata:  copyMetadata(a.Metadata),
		CreatedAt: time.Now().UTC(),
	}
	next.Hash = next.computeHash()
	return next
}

// WithMetadata returns a copy of the artifact with an extra metadata entry.
func (a *Artifact) WithMetadata(key, value string) *Artifact {
	next := &Artifact{
		ID:        a.ID,
		Version:   a.Version,
		Stage:     a.Stage,
		Content:   a.Content,
		Adapter:   a.Adapter,
		Model:     a.Model,
		Metadata:  copyMetadata(a.Metadata),
		CreatedAt: a.CreatedAt,
		Hash:      a.Hash,
	}
	next.Metadata[key] = value
	return next
}

func (a *Artifact) computeHash() string {
	h := sha256.New()
	h.Write([]byte(a.Stage))
	h.Write([]byte(a.Content))
	h.Write([]byte(a.Adapter))
	h.Write([]byte(a.Model))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func generateID() string {
	h := sha256.New()
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(time.Now().UnixNano()))
	h.Write(b)
	return hex.EncodeToString(h.Sum(nil))[:12]
}

func copyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
