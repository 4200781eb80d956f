package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptd/internal/budget"
	"github.com/fyrsmithlabs/promptd/internal/llm"
	"github.com/fyrsmithlabs/promptd/internal/prompt"
	"github.com/fyrsmithlabs/promptd/internal/sanitize"
	"github.com/fyrsmithlabs/promptd/internal/textdiff"
)

// fallbackPlan substitutes for a failed planning call so the run can proceed.
const fallbackPlan = "• Provide concise answer\n• Cover constraints\n• Include rationale\n"

// budgetSlackMultiplier sizes the token-budget guard: plan plus per-step
// draft/critique/revise overhead fits comfortably in 4× the per-call caps.
const budgetSlackMultiplier = 4

// V2 runs a plan step followed by up to N draft → critique → revise cycles
// with early stopping. One engine instance serves one Run invocation.
type V2 struct {
	gateway   llm.Gateway
	maxPasses int
	config    V2Config
	prompts   prompt.Templates
	logger    *zap.Logger
}

// NewV2 constructs the iterative engine. maxPasses is the caller's requested
// ceiling; the effective bound is the smaller of it and the config's
// MaxPasses, with a minimum of one pass.
func NewV2(gateway llm.Gateway, maxPasses int, cfg V2Config, logger *zap.Logger) (*V2, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid v2 config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &V2{
		gateway:   gateway,
		maxPasses: maxPasses,
		config:    cfg,
		prompts:   prompt.Load(),
		logger:    logger,
	}, nil
}

// passBound returns the effective iteration ceiling.
func (e *V2) passBound() int {
	bound := e.maxPasses
	if e.config.MaxPasses < bound {
		bound = e.config.MaxPasses
	}
	if bound < 1 {
		bound = 1
	}
	return bound
}

// Run executes the plan + pass loop and always returns a RunResult. Only the
// planning call may fail without ending the run; any other gateway failure
// stops with reason "error" and the best available text as final output.
func (e *V2) Run(ctx context.Context, taskText string) *RunResult {
	started := utcNow()
	var passes []PassRecord
	tokenTotal := 0
	stopped := StopComplete
	errMsg := ""
	final := ""

	runOpts := llm.Options{
		Temperature:     e.config.Temperature,
		MaxOutputTokens: e.config.MaxOutputTokens,
		Timeout:         e.config.Timeout,
	}

	// PLANNING: the one step where failure is absorbed rather than
	// propagated. A generic plan substitutes and the diagnostic is kept.
	planTurns := taskTurns(e.prompts.SystemV2,
		"Plan the answer as 2-4 bullet subgoals.\n\nTask:\n"+taskText,
		e.config.MaxInputTokens)
	plan, err := e.gateway.Generate(ctx, planTurns, llm.Options{
		Temperature:     planTemperature,
		MaxOutputTokens: planMaxTokens,
		Timeout:         e.config.Timeout,
	})
	if err != nil {
		plan = fallbackPlan
		errMsg = fmt.Sprintf("plan_error: %v", err)
		e.logger.Warn("planning failed, continuing with fallback plan", zap.Error(err))
	} else {
		tokenTotal += budget.EstimateTurns(planTurns) + budget.Estimate(plan)
	}

	runErr := func() error {
		for step := 1; step <= e.passBound(); step++ {
			passStart := time.Now()

			// DRAFTING
			draftTurns := budget.FitTurns([]llm.Turn{
				{Role: llm.RoleSystem, Content: e.prompts.SystemV2},
				{
					Role: llm.RoleUser,
					Content: fmt.Sprintf(
						"USER REQUEST:\n%s\n\nPLAN:\n%s\n\nProvide a concise draft for pass %d.",
						sanitize.Text(taskText), sanitize.Text(plan), step),
				},
			}, e.config.MaxInputTokens, true)
			draft, err := e.gateway.Generate(ctx, draftTurns, runOpts)
			if err != nil {
				return fmt.Errorf("pass %d draft: %w", step, err)
			}
			tokenTotal += budget.EstimateTurns(draftTurns) + budget.Estimate(draft)

			// CRITIQUING: same critic protocol as V1.
			cturns := criticTurns(e.prompts.CriticGuidelines, taskText, draft)
			critique, err := e.gateway.Generate(ctx, cturns, llm.Options{
				Temperature:     criticTemperature,
				MaxOutputTokens: criticMaxTokens,
				Timeout:         e.config.Timeout,
			})
			if err != nil {
				return fmt.Errorf("pass %d critique: %w", step, err)
			}
			tokenTotal += budget.EstimateTurns(cturns) + budget.Estimate(critique)

			// REVISING
			rturns := revisionTurns(e.prompts.SystemV2, taskText, draft, critique)
			revision, err := e.gateway.Generate(ctx, rturns, runOpts)
			if err != nil {
				return fmt.Errorf("pass %d revise: %w", step, err)
			}
			tokenTotal += budget.EstimateTurns(rturns) + budget.Estimate(revision)

			passes = append(passes, PassRecord{
				Step:          step,
				Phase:         PhaseRevision,
				Plan:          plan,
				Draft:         strings.TrimSpace(draft),
				Critique:      critique,
				Revision:      strings.TrimSpace(revision),
				Diff:          textdiff.Unified(draft, revision),
				TokenEstimate: tokenTotal,
				ElapsedMS:     time.Since(passStart).Milliseconds(),
				CreatedAt:     utcNow(),
				Meta:          map[string]string{"mode": "v2"},
			})

			// Early stop once the critic says we're good enough. A missing
			// or malformed score counts as 0.0.
			score, _ := ParseOverallScore(critique)
			if e.config.EarlyStopScore != nil && score >= *e.config.EarlyStopScore {
				stopped = StopEarlyStop
				e.logger.Info("early stop",
					zap.Int("step", step),
					zap.Float64("score", score),
					zap.Float64("threshold", *e.config.EarlyStopScore))
				return nil
			}

			// Budget guard.
			if tokenTotal >= (e.config.MaxInputTokens+e.config.MaxOutputTokens)*budgetSlackMultiplier {
				stopped = StopTokenBudget
				e.logger.Info("token budget exhausted",
					zap.Int("step", step), zap.Int("token_total", tokenTotal))
				return nil
			}

			// Loop-bound exhaustion alone leaves the stop reason "complete".
		}
		return nil
	}()

	if runErr == nil {
		final = lastRevision(passes)
		if final == "" {
			// Last resort: one plain generation before giving up.
			fturns := taskTurns(e.prompts.SystemV2, taskText, e.config.MaxInputTokens)
			text, err := e.gateway.Generate(ctx, fturns, runOpts)
			if err != nil {
				runErr = fmt.Errorf("final fallback: %w", err)
			} else {
				final = strings.TrimSpace(text)
				tokenTotal += budget.EstimateTurns(fturns) + budget.Estimate(final)
			}
		}
	}
	if runErr != nil {
		stopped = StopError
		errMsg = runErr.Error()
		final = lastRevision(passes)
		if final == "" {
			final = "ERROR: " + errMsg
		}
		e.logger.Warn("v2 run degraded", zap.Error(runErr))
	}

	return &RunResult{
		Mode:           ModeV2,
		FinalOutput:    final,
		Passes:         passes,
		TokenCount:     tokenTotal,
		StoppedReason:  stopped,
		ErrorMessage:   errMsg,
		StartedAt:      started,
		FinishedAt:     utcNow(),
		ConfigSnapshot: e.config.snapshot(),
		Meta:           map[string]string{},
	}
}
