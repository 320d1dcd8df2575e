// Package fileset models the file tree produced by the coder stage and its
// persistence to disk. Parsing is strict: any deviation from the expected
// JSON shape is a malformed_output fault and nothing is written.
package fileset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zen-systems/designflow/pkg/fault"
)

const fileModeDefault = 0644

// File is one generated source file.
type File struct {
	Path        string `json:"path"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`
}

// Set is the parsed coder output: an ordered set of files with unique,
// workspace-relative paths.
type Set struct {
	Files        []File   `json:"files"`
	Dependencies []string `json:"dependencies,omitempty"`
	SetupNotes   string   `json:"setup_notes,omitempty"`
}

// Parse decodes coder output JSON into a Set and validates every path.
func Parse(jsonText string) (*Set, error) {
	var set Set
	if err := json.Unmarshal([]byte(jsonText), &set); err != nil {
		return nil, fault.New(fault.KindMalformedOutput, fmt.Errorf("decode file set: %w", err))
	}
	if len(set.Files) == 0 {
		return nil, fault.Newf(fault.KindMalformedOutput, "file set contains no files")
	}

	seen := make(map[string]struct{}, len(set.Files))
	for i, f := range set.Files {
		if f.Path == "" {
			return nil, fault.Newf(fault.KindMalformedOutput, "file %d has empty path", i)
		}
		if err := validatePath(f.Path); err != nil {
			return nil, fault.New(fault.KindMalformedOutput, err)
		}
		if _, ok := seen[f.Path]; ok {
			return nil, fault.Newf(fault.KindMalformedOutput, "duplicate path %q", f.Path)
		}
		seen[f.Path] = struct{}{}
	}

	return &set, nil
}

// Paths returns the file paths in sorted order.
func (s *Set) Paths() []string {
	paths := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return paths
}

// Content returns the content for a path.
func (s *Set) Content(path string) (string, bool) {
	for _, f := range s.Files {
		if f.Path == path {
			return f.Content, true
		}
	}
	return "", false
}

// Merge returns a new Set with the given files replacing entries at the
// same path, or appended when the path is new. Replacement files are
// validated like parsed ones.
func (s *Set) Merge(files []File) (*Set, error) {
	merged := &Set{
		Files:        make([]File, len(s.Files)),
		Dependencies: s.Dependencies,
		SetupNotes:   s.SetupNotes,
	}
	copy(merged.Files, s.Files)

	for _, f := range files {
		if f.Path == "" {
			return nil, fault.Newf(fault.KindMalformedOutput, "replacement file has empty path")
		}
		if err := validatePath(f.Path); err != nil {
			return nil, fault.New(fault.KindMalformedOutput, err)
		}

		replaced := false
		for i := range merged.Files {
			if merged.Files[i].Path == f.Path {
				merged.Files[i].Content = f.Content
				replaced = true
				break
			}
		}
		if !replaced {
			merged.Files = append(merged.Files, f)
		}
	}

	return merged, nil
}

// WriteTree persists the set under dir, creating parent directories as
// needed, and returns the written relative paths.
func (s *Set) WriteTree(dir string) ([]string, error) {
	written := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		path, err := safeJoin(dir, f.Path)
		if err != nil {
			return nil, fault.New(fault.KindMalformedOutput, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fault.New(fault.KindIO, err)
		}
		if err := os.WriteFile(path, []byte(f.Content), fileModeDefault); err != nil {
			return nil, fault.New(fault.KindIO, err)
		}
		written = append(written, f.Path)
	}
	return written, nil
}

func validatePath(rel string) error {
	if filepath.IsAbs(rel) {
		return fmt.Errorf("absolute paths are not allowed: %s", rel)
	}
	cleaned := filepath.Clean(rel)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") {
		return fmt.Errorf("invalid path: %s", rel)
	}
	return nil
}

func safeJoin(root, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("empty path")
	}
	if err := validatePath(rel); err != nil {
		return "", err
	}

	joined := filepath.Join(root, filepath.Clean(rel))
	relCheck, err := filepath.Rel(root, joined)
	if err != nil || strings.HasPrefix(relCheck, "..") {
		return "", fmt.Errorf("path escapes output directory: %s", rel)
	}
	return joined, nil
}
