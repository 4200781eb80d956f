// Package eval is a lightweight evaluation harness: it runs an engine
// against a task file with the deterministic mock backend and persists the
// transcript, plus a small rubric score record for manual grading.
package eval

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptd/internal/llm"
	"github.com/fyrsmithlabs/promptd/internal/orchestrator"
	"github.com/fyrsmithlabs/promptd/internal/transcript"
)

// Score is a minimal rubric record for one evaluated task. Breakdown keys
// are rubric dimensions (coverage, clarity, constraints), each in [0, 1].
type Score struct {
	TaskID     string             `json:"task_id"`
	Mode       orchestrator.Mode  `json:"mode"`
	ScoreTotal float64            `json:"score_total"`
	Breakdown  map[string]float64 `json:"breakdown"`
	Notes      string             `json:"notes,omitempty"`
	CreatedAt  string             `json:"created_at"`
}

// Validate rejects out-of-range rubric values.
func (s Score) Validate() error {
	if s.TaskID == "" {
		return fmt.Errorf("task id must not be empty")
	}
	if s.ScoreTotal < 0 || s.ScoreTotal > 1 {
		return fmt.Errorf("score total must be in [0, 1], got %v", s.ScoreTotal)
	}
	for k, v := range s.Breakdown {
		if v < 0 || v > 1 {
			return fmt.Errorf("breakdown[%s] must be in [0, 1], got %v", k, v)
		}
	}
	return nil
}

// Harness drives eval runs against the mock backend.
type Harness struct {
	gateway llm.Gateway
	logger  *zap.Logger
}

// NewHarness returns a harness. A nil gateway defaults to the mock backend;
// evals are offline by design.
func NewHarness(gateway llm.Gateway, logger *zap.Logger) *Harness {
	if gateway == nil {
		gateway = llm.NewMock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Harness{gateway: gateway, logger: logger}
}

// RunTask runs the given mode over the task file and writes
// "<mode>_<stem>.jsonl" into outDir. It returns the result and the
// transcript path.
func (h *Harness) RunTask(ctx context.Context, mode orchestrator.Mode, taskPath, outDir string) (*orchestrator.RunResult, string, error) {
	data, err := os.ReadFile(taskPath)
	if err != nil {
		return nil, "", fmt.Errorf("read task: %w", err)
	}
	taskText := string(data)

	var result *orchestrator.RunResult
	switch mode {
	case orchestrator.ModeV1:
		engine, err := orchestrator.NewV1(h.gateway, orchestrator.DefaultV1Config(), h.logger)
		if err != nil {
			return nil, "", err
		}
		result = engine.Run(ctx, taskText)
	case orchestrator.ModeV2:
		cfg := orchestrator.DefaultV2Config()
		engine, err := orchestrator.NewV2(h.gateway, cfg.MaxPasses, cfg, h.logger)
		if err != nil {
			return nil, "", err
		}
		result = engine.Run(ctx, taskText)
	default:
		return nil, "", fmt.Errorf("unsupported mode: %s", mode)
	}

	stem := strings.TrimSuffix(filepath.Base(taskPath), filepath.Ext(taskPath))
	outPath := filepath.Join(outDir, fmt.Sprintf("%s_%s.jsonl", mode, stem))
	if err := transcript.WriteFile(outPath, result); err != nil {
		return nil, "", err
	}
	h.logger.Info("saved eval transcript",
		zap.String("path", outPath),
		zap.String("stopped_reason", string(result.StoppedReason)),
		zap.Int("passes", len(result.Passes)))
	return result, outPath, nil
}
