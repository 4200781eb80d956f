package orchestrator

import (
	"regexp"
	"strconv"
)

var (
	overallBoldRe  = regexp.MustCompile(`\*\*Overall\*\*:\s*([01](?:\.\d+)?)`)
	overallPlainRe = regexp.MustCompile(`(?i)\bOverall:\s*([01](?:\.\d+)?)`)
)

// ParseOverallScore extracts the critic's self-reported score from free-form
// critique text. It accepts a bolded "**Overall**: 0.87" line and falls back
// to a plain, case-insensitive "Overall: 0.87".
//
// This is an inherently fuzzy parse and intentionally lenient: the second
// return is false when no parseable score is present, and values outside
// [0, 1] are rejected rather than clamped. Callers apply a default-to-zero
// policy on a miss.
func ParseOverallScore(text string) (float64, bool) {
	m := overallBoldRe.FindStringSubmatch(text)
	if m == nil {
		m = overallPlainRe.FindStringSubmatch(text)
	}
	if m == nil {
		return 0, false
	}
	val, err := strconv.ParseFloat(m[1], 64)
	if err != nil || val < 0 || val > 1 {
		return 0, false
	}
	return val, true
}
