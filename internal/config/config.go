// Package config loads promptd configuration from an optional YAML file and
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (PROMPTD_ prefix)
//  2. YAML config file
//  3. Hardcoded defaults
//
// PROMPTD_FORCE_MOCK=1 overrides everything and forces the offline mock
// backend; CI relies on it to keep runs off the network.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// envPrefix namespaces promptd environment variables.
	envPrefix = "PROMPTD_"

	// ForceMockEnv forces the mock backend regardless of configuration.
	ForceMockEnv = "PROMPTD_FORCE_MOCK"

	maxConfigFileSize = 1 << 20
)

// Backend names a gateway implementation.
type Backend string

const (
	BackendMock      Backend = "mock"
	BackendOpenAI    Backend = "openai"
	BackendAnthropic Backend = "anthropic"
	BackendGemini    Backend = "gemini"
)

// Config is the complete promptd configuration.
type Config struct {
	// Backend selects the gateway implementation.
	Backend Backend `koanf:"backend"`

	// Model overrides the backend's default model name.
	Model string `koanf:"model"`

	// BaseURL points the openai backend at a compatible endpoint.
	BaseURL string `koanf:"base_url"`

	// PromptDir optionally overrides the compiled-in prompt templates.
	PromptDir string `koanf:"prompt_dir"`

	// RPS throttles the gemini backend; 0 disables throttling.
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`

	Log LogConfig `koanf:"log"`
	Run RunConfig `koanf:"run"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// RunConfig holds the default engine knobs; flags may override per run.
type RunConfig struct {
	MaxInputTokens  int     `koanf:"max_input_tokens"`
	MaxOutputTokens int     `koanf:"max_output_tokens"`
	Temperature     float64 `koanf:"temperature"`
	TimeoutSeconds  int     `koanf:"timeout_seconds"`
	MaxPasses       int     `koanf:"max_passes"`

	// EarlyStopScore < 0 disables early stopping.
	EarlyStopScore float64 `koanf:"early_stop_score"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendMock,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Run: RunConfig{
			MaxInputTokens:  2000,
			MaxOutputTokens: 512,
			Temperature:     0.2,
			TimeoutSeconds:  30,
			MaxPasses:       3,
			EarlyStopScore:  0.85,
		},
	}
}

// Load builds the configuration from the optional YAML file at path (empty
// path skips the file layer) and PROMPTD_-prefixed environment variables.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		data, err := readLimited(path)
		if err != nil {
			return nil, err
		}
		if data != nil {
			if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
		}
	}

	// PROMPTD_RUN_MAX_PASSES -> run.max_passes
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
		parts := strings.SplitN(s, "_", 2)
		if len(parts) == 2 && (parts[0] == "run" || parts[0] == "log") {
			return parts[0] + "." + parts[1]
		}
		return s
	}), nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if os.Getenv(ForceMockEnv) == "1" {
		cfg.Backend = BackendMock
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown backends and out-of-range knobs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendMock, BackendOpenAI, BackendAnthropic, BackendGemini:
	default:
		return fmt.Errorf("unknown backend %q (want mock, openai, anthropic, or gemini)", c.Backend)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be 'json' or 'console', got %q", c.Log.Format)
	}
	if c.Run.MaxInputTokens < 1 {
		return fmt.Errorf("run.max_input_tokens must be >= 1, got %d", c.Run.MaxInputTokens)
	}
	if c.Run.MaxOutputTokens < 1 {
		return fmt.Errorf("run.max_output_tokens must be >= 1, got %d", c.Run.MaxOutputTokens)
	}
	if c.Run.Temperature < 0 || c.Run.Temperature > 2 {
		return fmt.Errorf("run.temperature must be in [0, 2], got %v", c.Run.Temperature)
	}
	if c.Run.TimeoutSeconds < 1 {
		return fmt.Errorf("run.timeout_seconds must be >= 1, got %d", c.Run.TimeoutSeconds)
	}
	if c.Run.MaxPasses < 1 {
		return fmt.Errorf("run.max_passes must be >= 1, got %d", c.Run.MaxPasses)
	}
	if c.Run.EarlyStopScore > 1 {
		return fmt.Errorf("run.early_stop_score must be in [0, 1] or negative to disable, got %v", c.Run.EarlyStopScore)
	}
	return nil
}

// Timeout returns the run timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Run.TimeoutSeconds) * time.Second
}

// APIKey resolves the credential for the configured backend from the
// conventional environment variables. Keys never live in config files.
func (c *Config) APIKey() string {
	switch c.Backend {
	case BackendOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case BackendAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case BackendGemini:
		return os.Getenv("GEMINI_API_KEY")
	}
	return ""
}

func readLimited(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return data, nil
}
