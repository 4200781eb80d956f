package orchestrator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults valid", mutate: func(c *Config) {}},
		{name: "zero input tokens", mutate: func(c *Config) { c.MaxInputTokens = 0 }, wantErr: "max input tokens"},
		{name: "zero output tokens", mutate: func(c *Config) { c.MaxOutputTokens = 0 }, wantErr: "max output tokens"},
		{name: "negative temperature", mutate: func(c *Config) { c.Temperature = -0.5 }, wantErr: "temperature"},
		{name: "temperature above two", mutate: func(c *Config) { c.Temperature = 2.5 }, wantErr: "temperature"},
		{name: "sub-second timeout", mutate: func(c *Config) { c.Timeout = 100 * time.Millisecond }, wantErr: "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestV2ConfigValidate(t *testing.T) {
	t.Run("defaults valid", func(t *testing.T) {
		assert.NoError(t, DefaultV2Config().Validate())
	})

	t.Run("zero passes rejected", func(t *testing.T) {
		cfg := DefaultV2Config()
		cfg.MaxPasses = 0
		assert.ErrorContains(t, cfg.Validate(), "max passes")
	})

	t.Run("early stop out of range", func(t *testing.T) {
		cfg := DefaultV2Config()
		bad := 1.2
		cfg.EarlyStopScore = &bad
		assert.ErrorContains(t, cfg.Validate(), "early stop score")
	})

	t.Run("nil early stop disables and validates", func(t *testing.T) {
		cfg := DefaultV2Config()
		cfg.EarlyStopScore = nil
		assert.NoError(t, cfg.Validate())
	})
}

func TestPassRecordValidate(t *testing.T) {
	valid := PassRecord{Step: 1, Phase: PhaseRevision, Draft: "d", Revision: "r"}
	assert.NoError(t, valid.Validate())

	noDraft := valid
	noDraft.Draft = "   "
	assert.ErrorContains(t, noDraft.Validate(), "draft")

	noRevision := valid
	noRevision.Revision = ""
	assert.ErrorContains(t, noRevision.Validate(), "revision")

	negative := valid
	negative.TokenEstimate = -1
	assert.ErrorContains(t, negative.Validate(), "token estimate")
}

func TestRunResultValidateRejectsEmptyFinalOutput(t *testing.T) {
	r := &RunResult{
		Mode:          ModeV1,
		FinalOutput:   "   ",
		StoppedReason: StopComplete,
	}
	assert.ErrorContains(t, r.Validate(), "final output")
}

func TestRunResultValidateRejectsBadStopReason(t *testing.T) {
	r := &RunResult{
		Mode:          ModeV2,
		FinalOutput:   "ok",
		StoppedReason: StopReason("gave_up"),
	}
	assert.ErrorContains(t, r.Validate(), "stop reason")
}

func TestConfigSnapshotFields(t *testing.T) {
	snap := DefaultV2Config().snapshot()

	assert.Equal(t, 2000, snap["max_input_tokens"])
	assert.Equal(t, 512, snap["max_output_tokens"])
	assert.Equal(t, 30, snap["timeout_seconds"])
	assert.Equal(t, 3, snap["max_passes"])
	assert.Equal(t, 0.85, snap["early_stop_score"])

	cfg := DefaultV2Config()
	cfg.EarlyStopScore = nil
	assert.Nil(t, cfg.snapshot()["early_stop_score"])
}
