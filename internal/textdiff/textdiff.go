// Package textdiff records human-readable differences between two text
// versions, one per pass, for the run transcript.
package textdiff

import (
	"github.com/pmezard/go-difflib/difflib"
)

// contextLines is the unified-diff context window around each change.
const contextLines = 2

// Unified returns a unified diff between a and b over their line splits,
// labelled "a" and "b". The empty string is the sentinel for "no change":
// identical inputs always produce it. Deterministic for identical inputs.
func Unified(a, b string) string {
	if a == b {
		return ""
	}
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a),
		B:        difflib.SplitLines(b),
		FromFile: "a",
		ToFile:   "b",
		Context:  contextLines,
	})
	if err != nil {
		// SplitLines never yields inputs GetUnifiedDiffString rejects; keep
		// the no-change sentinel distinct by falling back to a minimal header.
		return "--- a\n+++ b\n"
	}
	return out
}
