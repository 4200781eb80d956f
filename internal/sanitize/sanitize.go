// Package sanitize normalizes raw text before it enters a conversation.
//
// Model output and task files routinely carry control characters, runaway
// whitespace, double-escaped HTML entities, and malformed code fences; all of
// these break prompt assembly or transcript rendering downstream. Rules are
// intentionally conservative to avoid altering meaning.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var (
	nonPrintable = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
	multiSpace   = regexp.MustCompile(`[ \t]{2,}`)
	multiNewline = regexp.MustCompile(`\n{3,}`)
	wildFence    = regexp.MustCompile("`{4,}")
)

// Text normalizes s for use as conversation content:
//   - strips control characters except newline and tab
//   - collapses runs of spaces/tabs to exactly two
//   - collapses three or more newlines to exactly two
//   - unescapes double-escaped HTML entities
//   - caps backtick runs of four or more down to three
//   - trims leading/trailing whitespace
//
// Empty input yields empty output. Pure function.
func Text(s string) string {
	if s == "" {
		return ""
	}

	t := nonPrintable.ReplaceAllString(s, "")
	t = multiSpace.ReplaceAllString(t, "  ")
	t = multiNewline.ReplaceAllString(t, "\n\n")
	t = html.UnescapeString(t)
	t = wildFence.ReplaceAllString(t, "```")

	return strings.TrimSpace(t)
}
