package orchestrator

import (
	"fmt"

	"github.com/fyrsmithlabs/promptd/internal/budget"
	"github.com/fyrsmithlabs/promptd/internal/llm"
	"github.com/fyrsmithlabs/promptd/internal/sanitize"
)

const (
	// criticInputBudget is the generous fixed budget for critic and revision
	// conversations; per-call output caps do the real clamping.
	criticInputBudget = 2000

	// criticMaxTokens is the small fixed cap on critique length.
	criticMaxTokens = 256

	// criticTemperature forces a stable, reproducible critic.
	criticTemperature = 0.0

	// planTemperature and planMaxTokens bound the V2 planning call.
	planTemperature = 0.1
	planMaxTokens   = 200
)

// taskTurns builds the basic system + sanitized task conversation, fit to
// the input budget with the system turn pinned.
func taskTurns(systemPrompt, userText string, maxInputTokens int) []llm.Turn {
	turns := []llm.Turn{
		{Role: llm.RoleSystem, Content: sanitize.Text(systemPrompt)},
		{Role: llm.RoleUser, Content: sanitize.Text(userText)},
	}
	return budget.FitTurns(turns, maxInputTokens, true)
}

// criticTurns builds the critic conversation: guideline instructions as
// system content, then the original task and the candidate as one user turn.
func criticTurns(guidelines, userText, candidate string) []llm.Turn {
	turns := []llm.Turn{
		{
			Role:    llm.RoleSystem,
			Content: guidelines + "\n\nYou will receive the user's request and a CANDIDATE answer.",
		},
		{
			Role: llm.RoleUser,
			Content: fmt.Sprintf("USER REQUEST:\n%s\n\nCANDIDATE:\n%s",
				sanitize.Text(userText), sanitize.Text(candidate)),
		},
	}
	return budget.FitTurns(turns, criticInputBudget, true)
}

// revisionTurns builds the revision conversation: the engine's system prompt
// plus an explicit apply-the-critique instruction, the task, the draft as
// prior assistant content, and the critique as the newest user turn.
func revisionTurns(systemPrompt, userText, draft, critique string) []llm.Turn {
	turns := []llm.Turn{
		{
			Role: llm.RoleSystem,
			Content: systemPrompt + "\n\n" +
				"Revise the answer by APPLYING the critique below.\n" +
				"Respond with ONLY the revised answer.",
		},
		{Role: llm.RoleUser, Content: "USER REQUEST:\n" + sanitize.Text(userText)},
		{Role: llm.RoleAssistant, Content: "DRAFT:\n" + sanitize.Text(draft)},
		{
			Role: llm.RoleUser,
			Content: "CRITIQUE:\n" + sanitize.Text(critique) +
				"\n\nPlease provide the REVISED answer now.",
		},
	}
	return budget.FitTurns(turns, criticInputBudget, true)
}
