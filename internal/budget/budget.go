// Package budget estimates text size in rough token units and truncates
// text or whole conversations to fit a unit budget.
//
// Estimates are dependency-free character heuristics, not tokenizer output:
// tokens ~= ceil(len/4). That is good enough for pass caps and truncation
// decisions, and the transcripts replay deterministically because of it.
package budget

import (
	"strings"
	"unicode/utf8"

	"github.com/fyrsmithlabs/promptd/internal/llm"
)

const (
	// AvgCharsPerToken is the assumed chars-per-token ratio for prose.
	AvgCharsPerToken = 4

	minTokens = 1

	// TruncationMarker is appended whenever text is hard-cut.
	TruncationMarker = " …[truncated]"
)

// Estimate returns a rough token count for text: 0 when empty, otherwise
// ceil(len/AvgCharsPerToken) floored at 1.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	n := (len(text) + AvgCharsPerToken - 1) / AvgCharsPerToken
	if n < minTokens {
		return minTokens
	}
	return n
}

// EstimateTurns sums Estimate over turn contents. Roles are not counted.
func EstimateTurns(turns []llm.Turn) int {
	total := 0
	for _, t := range turns {
		total += Estimate(t.Content)
	}
	return total
}

// FitText truncates a single string to approximately fit maxTokens, returning
// the (possibly cut) text and its new estimate. A non-positive budget yields
// an empty result.
func FitText(text string, maxTokens int) (string, int) {
	if maxTokens <= 0 {
		return "", 0
	}
	if current := Estimate(text); current <= maxTokens {
		return text, current
	}
	cut := maxTokens * AvgCharsPerToken
	// Never split a multi-byte rune; the transcript must stay valid UTF-8.
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	truncated := strings.TrimRight(text[:cut], " \t\n")
	if len(truncated) < len(text) {
		truncated += TruncationMarker
	}
	return truncated, Estimate(truncated)
}

// FitTurns truncates a conversation to roughly fit maxTokens.
//
// Policy, applied in order:
//  1. When keepSystem is set and the first turn is a system turn, it is
//     pinned untouched and the remainder is budgeted against the residual.
//  2. Drop the oldest non-pinned turn while over budget, but never the sole
//     most recent turn.
//  3. If still over, truncate contents oldest-first, recomputing the residual
//     budget after each cut.
//  4. Last resort: truncate the newest turn.
//
// Oldest context is considered least valuable. The input slice is never
// mutated; a non-positive budget returns nil.
func FitTurns(turns []llm.Turn, maxTokens int, keepSystem bool) []llm.Turn {
	if maxTokens <= 0 {
		return nil
	}
	if len(turns) == 0 {
		return []llm.Turn{}
	}

	var pinned []llm.Turn
	rest := make([]llm.Turn, len(turns))
	copy(rest, turns)
	if keepSystem && rest[0].Role == llm.RoleSystem {
		pinned = rest[:1]
		rest = rest[1:]
	}

	total := func() int { return EstimateTurns(pinned) + EstimateTurns(rest) }

	for len(rest) > 1 && total() > maxTokens {
		rest = rest[1:]
	}

	for i := 0; i < len(rest) && total() > maxTokens; i++ {
		residual := maxTokens - EstimateTurns(pinned) - estimateExcept(rest, i)
		if residual < 1 {
			residual = 1
		}
		rest[i].Content, _ = FitText(rest[i].Content, residual)
	}

	if len(rest) > 0 && total() > maxTokens {
		j := len(rest) - 1
		residual := maxTokens - EstimateTurns(pinned) - EstimateTurns(rest[:j])
		if residual < 1 {
			residual = 1
		}
		rest[j].Content, _ = FitText(rest[j].Content, residual)
	}

	return append(pinned, rest...)
}

// estimateExcept sums the estimates of all turns except index i.
func estimateExcept(turns []llm.Turn, i int) int {
	total := 0
	for j, t := range turns {
		if j == i {
			continue
		}
		total += Estimate(t.Content)
	}
	return total
}
