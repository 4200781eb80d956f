// Package prompt holds the system prompt templates for the V1 and V2 engines
// and the critic persona.
//
// Templates are process-wide immutable constants with load-or-default
// semantics: each is read at most once from an optional override directory
// and falls back to the compiled-in default when no file exists.
package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const defaultSystemV1 = `You are an LLM that performs a single self-critique and revision.

Process:
1) Produce a concise DRAFT answer to the user's request.
2) Critique your draft against the request and constraints (clarity, coverage, constraints).
3) Produce a REVISED answer that applies the critique. Keep it short and structured.

Output only the revised answer (no meta commentary).`

const defaultSystemV2 = `You are an LLM that plans, iterates, and improves an answer in small passes.

Process:
- PLAN: outline 2-4 subgoals needed to answer well.
- For each pass: propose a short DRAFT, request/consider CRITIQUE, then REVISE.
- Keep answers concise and structured. Avoid scope creep. Respect constraints.

You will be given a separate CRITIC to review drafts during passes.`

const defaultCriticGuidelines = `You are a CRITIC. Evaluate ONLY the candidate answer against the user's request.

Score with bullets in 3 dimensions (0.00-1.00):
- Coverage — does it answer the full ask?
- Clarity — is it concise and readable?
- Constraints — does it obey explicit constraints?

Then give 2-3 concrete improvement suggestions.
Finish with line: **Overall**: <score>`

// Templates bundles the three prompt texts used by the engines.
type Templates struct {
	SystemV1         string
	SystemV2         string
	CriticGuidelines string
}

var (
	loadOnce sync.Once
	loaded   Templates
	// overrideDir is consulted exactly once, before the first Load call.
	overrideDir string
)

// SetDir sets the directory checked for template override files
// (system_v1.txt, system_v2.txt, critic_guidelines.txt). It has no effect
// after the first Load.
func SetDir(dir string) {
	overrideDir = dir
}

// Load returns the process-wide templates, reading overrides on first use.
func Load() Templates {
	loadOnce.Do(func() {
		loaded = loadFrom(overrideDir)
	})
	return loaded
}

func loadFrom(dir string) Templates {
	return Templates{
		SystemV1:         readOrDefault(dir, "system_v1.txt", defaultSystemV1),
		SystemV2:         readOrDefault(dir, "system_v2.txt", defaultSystemV2),
		CriticGuidelines: readOrDefault(dir, "critic_guidelines.txt", defaultCriticGuidelines),
	}
}

func readOrDefault(dir, name, fallback string) string {
	if dir == "" {
		return strings.TrimSpace(fallback)
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return strings.TrimSpace(fallback)
	}
	return strings.TrimSpace(string(data))
}
