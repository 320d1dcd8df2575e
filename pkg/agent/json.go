package agent

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/zen-systems/designflow/pkg/fault"
)

var codeFencePattern = regexp.MustCompile("```(?:json)?\\s*")

// ExtractJSON pulls a JSON object out of model output. Code fences are
// stripped and the text is sliced from the first '{' to the last '}'.
// Anything that still fails to parse is a malformed_output fault.
func ExtractJSON(text string) (string, error) {
	cleaned := codeFencePattern.ReplaceAllString(text, "")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return "", fault.Newf(fault.KindMalformedOutput, "no JSON object in model output")
	}
	cleaned = cleaned[start : end+1]

	if !json.Valid([]byte(cleaned)) {
		return "", fault.Newf(fault.KindMalformedOutput, "model output is not valid JSON")
	}
	return cleaned, nil
}
