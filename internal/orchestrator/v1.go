package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptd/internal/budget"
	"github.com/fyrsmithlabs/promptd/internal/llm"
	"github.com/fyrsmithlabs/promptd/internal/prompt"
	"github.com/fyrsmithlabs/promptd/internal/textdiff"
)

// V1 runs exactly one draft → critique → revise cycle against the gateway.
// One engine instance serves one Run invocation; it holds no mutable state
// across runs but is not meant for concurrent reuse.
type V1 struct {
	gateway llm.Gateway
	config  V1Config
	prompts prompt.Templates
	logger  *zap.Logger
}

// NewV1 constructs the single-pass engine. The gateway is required and the
// config is validated eagerly.
func NewV1(gateway llm.Gateway, cfg V1Config, logger *zap.Logger) (*V1, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid v1 config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &V1{
		gateway: gateway,
		config:  cfg,
		prompts: prompt.Load(),
		logger:  logger,
	}, nil
}

// Run executes the cycle and always returns a RunResult: gateway failures are
// captured into the result (stop reason "error"), never surfaced as a panic
// or Go error.
func (e *V1) Run(ctx context.Context, taskText string) *RunResult {
	started := utcNow()
	var passes []PassRecord
	tokenTotal := 0
	stopped := StopComplete
	errMsg := ""
	final := ""

	err := func() error {
		runOpts := llm.Options{
			Temperature:     e.config.Temperature,
			MaxOutputTokens: e.config.MaxOutputTokens,
			Timeout:         e.config.Timeout,
		}

		// DRAFTING
		turns := taskTurns(e.prompts.SystemV1, taskText, e.config.MaxInputTokens)
		draft, err := e.gateway.Generate(ctx, turns, runOpts)
		if err != nil {
			return fmt.Errorf("draft: %w", err)
		}
		tokenTotal += budget.EstimateTurns(turns) + budget.Estimate(draft)
		e.logger.Debug("draft complete", zap.Int("token_total", tokenTotal))

		// CRITIQUING: stable critic, forced temperature 0, small output cap.
		cturns := criticTurns(e.prompts.CriticGuidelines, taskText, draft)
		critique, err := e.gateway.Generate(ctx, cturns, llm.Options{
			Temperature:     criticTemperature,
			MaxOutputTokens: criticMaxTokens,
			Timeout:         e.config.Timeout,
		})
		if err != nil {
			return fmt.Errorf("critique: %w", err)
		}
		tokenTotal += budget.EstimateTurns(cturns) + budget.Estimate(critique)

		// REVISING
		rturns := revisionTurns(e.prompts.SystemV1, taskText, draft, critique)
		revision, err := e.gateway.Generate(ctx, rturns, runOpts)
		if err != nil {
			return fmt.Errorf("revise: %w", err)
		}
		tokenTotal += budget.EstimateTurns(rturns) + budget.Estimate(revision)

		passes = append(passes, PassRecord{
			Step:          1,
			Phase:         PhaseRevision,
			Draft:         strings.TrimSpace(draft),
			Critique:      critique,
			Revision:      strings.TrimSpace(revision),
			Diff:          textdiff.Unified(draft, revision),
			TokenEstimate: tokenTotal,
			CreatedAt:     utcNow(),
			Meta:          map[string]string{"mode": "v1"},
		})

		final = strings.TrimSpace(revision)
		if final == "" {
			final = strings.TrimSpace(draft)
		}
		return nil
	}()
	if err != nil {
		stopped = StopError
		errMsg = err.Error()
		final = lastRevision(passes)
		if final == "" {
			final = "ERROR: " + errMsg
		}
		e.logger.Warn("v1 run degraded", zap.Error(err))
	}

	return &RunResult{
		Mode:           ModeV1,
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

// lastRevision returns the trimmed revision of the newest pass, or "".
func lastRevision(passes []PassRecord) string {
	if len(passes) == 0 {
		return ""
	}
	return strings.TrimSpace(passes[len(passes)-1].Revision)
}
