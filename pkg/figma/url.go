package figma

import (
	"net/url"
	"regexp"

	"github.com/zen-systems/designflow/pkg/fault"
)

var fileKeyPattern = regexp.MustCompile(`/(?:file|design)/([a-zA-Z0-9]+)`)

// FileRef identifies a Figma file and an optional node within it.
type FileRef struct {
	FileKey string
	NodeID  string
}

// ParseURL extracts the file key and optional node-id from a Figma URL.
// Accepts both /file/{key} and /design/{key} path shapes.
func ParseURL(rawURL string) (FileRef, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return FileRef{}, fault.Newf(fault.KindInvalidURL, "parse %q: %v", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return FileRef{}, fault.Newf(fault.KindInvalidURL, "not an http(s) URL: %q", rawURL)
	}

	match := fileKeyPattern.FindStringSubmatch(parsed.Path)
	if match == nil {
		return FileRef{}, fault.Newf(fault.KindInvalidURL, "no file key in %q", rawURL)
	}

	return FileRef{
		FileKey: match[1],
		NodeID:  parsed.Query().Get("node-id"),
	}, nil
}
