package agent

import (
	"fmt"
	"strings"

	"github.com/zen-systems/designflow/pkg/fileset"
)

// BuildFixPrompt creates a coder prompt that regenerates the file set with
// the reviewer's findings resolved.
func BuildFixPrompt(review *Review, set *fileset.Set) string {
	var sb strings.Builder

	sb.WriteString("The following generated files failed code review:\n\n")
	for _, f := range set.Files {
		sb.WriteString(fmt.Sprintf("--- %s ---\n", f.Path))
		sb.WriteString(f.Content)
		sb.WriteString("\n\n")
	}

	sb.WriteString("Issues found:\n")
	for _, issue := range review.Issues {
		sb.WriteString(fmt.Sprintf("- [%s] %s: %s\n", issue.Severity, issue.File, issue.Description))
		if issue.Suggestion != "" {
			sb.WriteString(fmt.Sprintf("  Suggestion: %s\n", issue.Suggestion))
		}
	}

	if len(review.Improvements) > 0 {
		sb.WriteString("\nImprovements requested:\n")
		for _, improvement := range review.Improvements {
			sb.WriteString(fmt.Sprintf("- %s\n", improvement))
		}
	}

	sb.WriteString("\nFix every issue and return the complete corrected file set in the usual JSON structure. Include every file, not just the changed ones.")

	return sb.String()
}
