package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/promptd/internal/config"
	"github.com/fyrsmithlabs/promptd/internal/llm"
)

func TestNewGatewayForceMockFlag(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendOpenAI

	gw, err := newGateway(context.Background(), cfg, true)
	require.NoError(t, err)
	assert.IsType(t, &llm.Mock{}, gw)
}

func TestNewGatewayForceMockEnv(t *testing.T) {
	t.Setenv(config.ForceMockEnv, "1")
	cfg := config.Default()
	cfg.Backend = config.BackendAnthropic

	gw, err := newGateway(context.Background(), cfg, false)
	require.NoError(t, err)
	assert.IsType(t, &llm.Mock{}, gw)
}

func TestNewGatewayMissingKeyErrors(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	for _, backend := range []config.Backend{
		config.BackendOpenAI,
		config.BackendAnthropic,
		config.BackendGemini,
	} {
		cfg := config.Default()
		cfg.Backend = backend
		_, err := newGateway(context.Background(), cfg, false)
		assert.ErrorContains(t, err, "use --mock for a local run", "backend %s", backend)
	}
}

func TestV2ConfigMapping(t *testing.T) {
	cfg := config.Default()
	cfg.Run.MaxPasses = 4
	cfg.Run.EarlyStopScore = 0.9

	v2 := v2Config(cfg)
	require.NoError(t, v2.Validate())
	assert.Equal(t, 4, v2.MaxPasses)
	require.NotNil(t, v2.EarlyStopScore)
	assert.InDelta(t, 0.9, *v2.EarlyStopScore, 1e-9)

	cfg.Run.EarlyStopScore = -1
	v2 = v2Config(cfg)
	assert.Nil(t, v2.EarlyStopScore, "negative score disables early stopping")
}

func TestV1ConfigMapping(t *testing.T) {
	cfg := config.Default()
	cfg.Run.MaxOutputTokens = 256

	v1 := v1Config(cfg)
	require.NoError(t, v1.Validate())
	assert.Equal(t, 256, v1.MaxOutputTokens)
	assert.Equal(t, cfg.Timeout(), v1.Timeout)
}

func TestRunCmdRejectsInvalidMode(t *testing.T) {
	task := filepath.Join(t.TempDir(), "task.md")
	require.NoError(t, os.WriteFile(task, []byte("Fix the tone of this email."), 0o644))

	runMode = "v3"
	runTask = task
	runMock = true
	t.Cleanup(func() { runMode, runTask, runMock = "", "", false })

	err := runRun(runCmd, nil)
	assert.ErrorContains(t, err, "invalid mode")
}
