package writer

import (
	"regexp"
	"strings"
)

var (
	betweenTags = regexp.MustCompile(`>\s*\n\s*<`)
	lineEdges   = regexp.MustCompile(`(?m)^\s+|\s+$`)
)

// CleanContent normalizes model output into a single-line HTML blob.
// Literal backslash-n sequences and CR/CRLF become LF, whitespace between
// adjacent tags is collapsed, every line is trimmed, and any remaining
// newlines are removed. Downstream consumers render the result verbatim.
func CleanContent(content string) string {
	content = strings.ReplaceAll(content, `\n`, "\n")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	content = betweenTags.ReplaceAllString(content, "><")
	content = lineEdges.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "\n", "")

	return strings.TrimSpace(content)
}
