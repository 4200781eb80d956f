package orchestrator

import (
	"fmt"
	"strings"
	"time"
)

// Mode tags which engine produced a result.
type Mode string

const (
	ModeV1 Mode = "v1"
	ModeV2 Mode = "v2"
)

// Phase tags what a PassRecord represents.
type Phase string

const (
	PhaseDraft    Phase = "draft"
	PhaseCritique Phase = "critique"
	PhaseRevision Phase = "revision"
	PhaseFinalize Phase = "finalize"
)

// StopReason explains why a run ended.
type StopReason string

const (
	StopComplete    StopReason = "complete"
	StopEarlyStop   StopReason = "early_stop"
	StopMaxPasses   StopReason = "max_passes"
	StopTokenBudget StopReason = "token_budget"
	StopTimeout     StopReason = "timeout"
	StopError       StopReason = "error"
)

// Config holds the parameters shared by V1 and V2 runs. It is created once
// per run invocation, validated eagerly, and echoed into the result snapshot.
type Config struct {
	// MaxInputTokens is the rough budget for prompt context.
	MaxInputTokens int `koanf:"max_input_tokens"`

	// MaxOutputTokens is the rough cap per generation call.
	MaxOutputTokens int `koanf:"max_output_tokens"`

	// Temperature is the sampling temperature forwarded verbatim, except
	// critic calls which always force 0.
	Temperature float64 `koanf:"temperature"`

	// Timeout is the advisory per-call ceiling forwarded to the gateway.
	Timeout time.Duration `koanf:"timeout"`
}

// DefaultConfig returns the shared defaults.
func DefaultConfig() Config {
	return Config{
		MaxInputTokens:  2000,
		MaxOutputTokens: 512,
		Temperature:     0.2,
		Timeout:         30 * time.Second,
	}
}

// Validate rejects out-of-range fields.
func (c Config) Validate() error {
	if c.MaxInputTokens < 1 {
		return fmt.Errorf("max input tokens must be >= 1, got %d", c.MaxInputTokens)
	}
	if c.MaxOutputTokens < 1 {
		return fmt.Errorf("max output tokens must be >= 1, got %d", c.MaxOutputTokens)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0, 2], got %v", c.Temperature)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("timeout must be >= 1s, got %v", c.Timeout)
	}
	return nil
}

// V1Config configures the single self-critique + revision engine.
// Deliberately nothing beyond the shared parameters.
type V1Config struct {
	Config
}

// DefaultV1Config returns V1 defaults.
func DefaultV1Config() V1Config { return V1Config{Config: DefaultConfig()} }

// V2Config configures the planner + multi-pass engine.
type V2Config struct {
	Config

	// MaxPasses is the hard upper bound on improvement iterations.
	MaxPasses int `koanf:"max_passes"`

	// EarlyStopScore stops iteration once the critic's self-reported score
	// reaches it. Nil disables early stopping entirely.
	EarlyStopScore *float64 `koanf:"early_stop_score"`
}

// DefaultV2Config returns V2 defaults (3 passes, early stop at 0.85).
func DefaultV2Config() V2Config {
	score := 0.85
	return V2Config{
		Config:         DefaultConfig(),
		MaxPasses:      3,
		EarlyStopScore: &score,
	}
}

// Validate rejects out-of-range fields.
func (c V2Config) Validate() error {
	if err := c.Config.Validate(); err != nil {
		return err
	}
	if c.MaxPasses < 1 {
		return fmt.Errorf("max passes must be >= 1, got %d", c.MaxPasses)
	}
	if c.EarlyStopScore != nil && (*c.EarlyStopScore < 0 || *c.EarlyStopScore > 1) {
		return fmt.Errorf("early stop score must be in [0, 1], got %v", *c.EarlyStopScore)
	}
	return nil
}

// PassRecord is the immutable record of one completed improvement pass.
// Transcripts store one record per line; field names are the persisted
// layout callers replay against and must not change.
type PassRecord struct {
	// Step is the 1-based index of the pass.
	Step int `json:"step"`

	Phase Phase `json:"phase"`

	// Plan is the V2 outline; empty for V1.
	Plan string `json:"plan,omitempty"`

	// Draft is the candidate text before critique, whitespace-trimmed.
	Draft string `json:"draft"`

	Critique string `json:"critique,omitempty"`

	// Revision is the candidate text after applying the critique, trimmed.
	Revision string `json:"revision"`

	// Diff is the unified diff between draft and revision; empty means no
	// change.
	Diff string `json:"diff"`

	// TokenEstimate is the cumulative rough token total at record time.
	TokenEstimate int `json:"token_estimate"`

	// ElapsedMS is wall time for the pass's three calls; 0 when untimed.
	ElapsedMS int64 `json:"elapsed_ms,omitempty"`

	CreatedAt string `json:"created_at"`

	Meta map[string]string `json:"meta"`
}

// Validate checks record invariants.
func (p PassRecord) Validate() error {
	if p.Step < 0 {
		return fmt.Errorf("step must be >= 0, got %d", p.Step)
	}
	if strings.TrimSpace(p.Draft) == "" {
		return fmt.Errorf("pass %d: draft must not be empty", p.Step)
	}
	if strings.TrimSpace(p.Revision) == "" {
		return fmt.Errorf("pass %d: revision must not be empty", p.Step)
	}
	if p.TokenEstimate < 0 {
		return fmt.Errorf("pass %d: token estimate must be >= 0", p.Step)
	}
	return nil
}

// RunResult is the final artifact of a run. It exclusively owns its passes,
// in strict step order, and is constructed exactly once at the end of Run.
type RunResult struct {
	Mode Mode `json:"mode"`

	// FinalOutput is the last accepted text. Never empty: engines substitute
	// a diagnostic placeholder when every generation attempt fails.
	FinalOutput string `json:"final_output"`

	Passes []PassRecord `json:"passes"`

	// TokenCount is the rough cumulative total (inputs + outputs).
	TokenCount int `json:"token_count"`

	StoppedReason StopReason `json:"stopped_reason"`

	ErrorMessage string `json:"error_message,omitempty"`

	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`

	// ConfigSnapshot echoes the run configuration verbatim for auditability.
	ConfigSnapshot map[string]any `json:"config_snapshot"`

	Meta map[string]string `json:"meta"`
}

// Validate enforces the result invariants, the non-empty final output above
// all. Engines must never construct a result this method rejects.
func (r *RunResult) Validate() error {
	if r.Mode != ModeV1 && r.Mode != ModeV2 {
		return fmt.Errorf("invalid mode %q", r.Mode)
	}
	if strings.TrimSpace(r.FinalOutput) == "" {
		return fmt.Errorf("final output must not be empty")
	}
	if r.TokenCount < 0 {
		return fmt.Errorf("token count must be >= 0, got %d", r.TokenCount)
	}
	switch r.StoppedReason {
	case StopComplete, StopEarlyStop, StopMaxPasses, StopTokenBudget, StopTimeout, StopError:
	default:
		return fmt.Errorf("invalid stop reason %q", r.StoppedReason)
	}
	for _, p := range r.Passes {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// snapshot renders the shared config fields for the result snapshot.
func (c Config) snapshot() map[string]any {
	return map[string]any{
		"max_input_tokens":  c.MaxInputTokens,
		"max_output_tokens": c.MaxOutputTokens,
		"temperature":       c.Temperature,
		"timeout_seconds":   int(c.Timeout / time.Second),
	}
}

// snapshot renders the V2 config, including the optional early-stop knob.
func (c V2Config) snapshot() map[string]any {
	m := c.Config.snapshot()
	m["max_passes"] = c.MaxPasses
	if c.EarlyStopScore != nil {
		m["early_stop_score"] = *c.EarlyStopScore
	} else {
		m["early_stop_score"] = nil
	}
	return m
}

// utcNow returns the current UTC timestamp as RFC3339 with a Z suffix, the
// layout the transcript format has always used.
func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
