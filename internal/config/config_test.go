package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, BackendMock, cfg.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 2000, cfg.Run.MaxInputTokens)
	assert.Equal(t, 512, cfg.Run.MaxOutputTokens)
	assert.Equal(t, 3, cfg.Run.MaxPasses)
	assert.InDelta(t, 0.85, cfg.Run.EarlyStopScore, 1e-9)
	require.NoError(t, cfg.Validate())
}

func TestLoadNoFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendMock, cfg.Backend)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendMock, cfg.Backend)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promptd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend: openai
model: gpt-4o
log:
  format: json
run:
  max_passes: 5
  early_stop_score: -1
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendOpenAI, cfg.Backend)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Run.MaxPasses)
	assert.Negative(t, cfg.Run.EarlyStopScore)

	// Sections absent from the file keep defaults.
	assert.Equal(t, 2000, cfg.Run.MaxInputTokens)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promptd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: openai\n"), 0o644))

	t.Setenv("PROMPTD_BACKEND", "anthropic")
	t.Setenv("PROMPTD_RUN_MAX_PASSES", "7")
	t.Setenv("PROMPTD_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendAnthropic, cfg.Backend)
	assert.Equal(t, 7, cfg.Run.MaxPasses)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestForceMockWinsOverEverything(t *testing.T) {
	t.Setenv("PROMPTD_BACKEND", "openai")
	t.Setenv(ForceMockEnv, "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendMock, cfg.Backend)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "promptd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config file")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults pass", mutate: func(c *Config) {}},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Backend = "llama" },
			wantErr: "unknown backend",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: "log format",
		},
		{
			name:    "zero input tokens",
			mutate:  func(c *Config) { c.Run.MaxInputTokens = 0 },
			wantErr: "max_input_tokens",
		},
		{
			name:    "zero output tokens",
			mutate:  func(c *Config) { c.Run.MaxOutputTokens = 0 },
			wantErr: "max_output_tokens",
		},
		{
			name:    "temperature too high",
			mutate:  func(c *Config) { c.Run.Temperature = 2.5 },
			wantErr: "temperature",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Run.TimeoutSeconds = 0 },
			wantErr: "timeout_seconds",
		},
		{
			name:    "zero passes",
			mutate:  func(c *Config) { c.Run.MaxPasses = 0 },
			wantErr: "max_passes",
		},
		{
			name:    "early stop above one",
			mutate:  func(c *Config) { c.Run.EarlyStopScore = 1.1 },
			wantErr: "early_stop_score",
		},
		{
			name:   "negative early stop disables",
			mutate: func(c *Config) { c.Run.EarlyStopScore = -1 },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestAPIKeyPerBackend(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("GEMINI_API_KEY", "sk-gem")

	cfg := Default()
	cfg.Backend = BackendOpenAI
	assert.Equal(t, "sk-openai", cfg.APIKey())
	cfg.Backend = BackendAnthropic
	assert.Equal(t, "sk-ant", cfg.APIKey())
	cfg.Backend = BackendGemini
	assert.Equal(t, "sk-gem", cfg.APIKey())
	cfg.Backend = BackendMock
	assert.Empty(t, cfg.APIKey())
}
