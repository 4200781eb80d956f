// Package main implements the promptd CLI: draft → critique → revise runs
// over a task file, with an offline mock backend for deterministic use.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/promptd/internal/config"
	"github.com/fyrsmithlabs/promptd/internal/eval"
	"github.com/fyrsmithlabs/promptd/internal/llm"
	"github.com/fyrsmithlabs/promptd/internal/logging"
	"github.com/fyrsmithlabs/promptd/internal/orchestrator"
	"github.com/fyrsmithlabs/promptd/internal/prompt"
	"github.com/fyrsmithlabs/promptd/internal/transcript"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "promptd",
	Short: "Draft → critique → revise orchestration over an LLM backend",
	Long: `promptd runs a task through a self-improving prompt loop:

  v1  one draft → critique → revise cycle
  v2  a plan step, then iterative passes with critic-driven early stopping

Every pass is recorded and can be saved as a line-delimited JSON transcript
for auditing and replay.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(evalCmd)
}

var (
	runMode   string
	runTask   string
	runPasses int
	runMock   bool
	runSave   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run prompt mode V1 or V2 on a task file",
	Long: `Run prompt mode V1 or V2 on a task file.

Examples:
  # Single-pass self-critique, offline
  promptd run --mode v1 --task examples/tasks/email_tone_fix.md --mock

  # Iterative refinement with a saved transcript
  promptd run --mode v2 --task examples/tasks/sql_query_review.md --passes 2 \
    --mock --save out/v2_sql.jsonl`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "", "prompt mode version: v1 or v2")
	runCmd.Flags().StringVar(&runTask, "task", "", "path to task file (markdown or text)")
	runCmd.Flags().IntVar(&runPasses, "passes", 1, "number of passes (v2 only)")
	runCmd.Flags().BoolVar(&runMock, "mock", false, "use the deterministic mock backend")
	runCmd.Flags().StringVar(&runSave, "save", "", "path to save run transcript (JSONL)")
	_ = runCmd.MarkFlagRequired("mode")
	_ = runCmd.MarkFlagRequired("task")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	taskText, err := os.ReadFile(runTask)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Task file not found: %s\n", runTask)
		return err
	}

	gateway, err := newGateway(cmd.Context(), cfg, runMock)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	var result *orchestrator.RunResult
	switch runMode {
	case "v1":
		engine, err := orchestrator.NewV1(gateway, v1Config(cfg), logger)
		if err != nil {
			return err
		}
		result = engine.Run(cmd.Context(), string(taskText))
	case "v2":
		engine, err := orchestrator.NewV2(gateway, runPasses, v2Config(cfg), logger)
		if err != nil {
			return err
		}
		result = engine.Run(cmd.Context(), string(taskText))
	default:
		return fmt.Errorf("invalid mode %q (want v1 or v2)", runMode)
	}
	result.Meta["run_id"] = uuid.NewString()

	fmt.Println("\n=== FINAL OUTPUT ===")
	fmt.Println()
	fmt.Println(result.FinalOutput)
	fmt.Println("\n=== SUMMARY ===")
	fmt.Printf("Passes: %d\n", len(result.Passes))
	fmt.Printf("Token estimate: %d\n", result.TokenCount)
	fmt.Printf("Stopped: %s\n", result.StoppedReason)
	if result.ErrorMessage != "" {
		fmt.Printf("Error: %s\n", result.ErrorMessage)
	}

	if runSave != "" {
		if err := transcript.WriteFile(runSave, result); err != nil {
			return err
		}
		logger.Info("saved transcript", zap.String("path", runSave))
	}
	return nil
}

var (
	evalMode string
	evalTask string
	evalOut  string
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run an offline eval on a task and save its transcript",
	Long: `Run an offline eval on a task file using the mock backend and save
the transcript as <mode>_<task-stem>.jsonl in the output directory.`,
	RunE: runEval,
}

func init() {
	evalCmd.Flags().StringVar(&evalMode, "mode", "", "prompt mode version: v1 or v2")
	evalCmd.Flags().StringVar(&evalTask, "task", "", "path to task file")
	evalCmd.Flags().StringVar(&evalOut, "out", "examples/transcripts", "directory for transcript output")
	_ = evalCmd.MarkFlagRequired("mode")
	_ = evalCmd.MarkFlagRequired("task")
}

func runEval(cmd *cobra.Command, args []string) error {
	_, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	harness := eval.NewHarness(nil, logger)
	_, outPath, err := harness.RunTask(cmd.Context(), orchestrator.Mode(evalMode), evalTask, evalOut)
	if err != nil {
		return err
	}
	fmt.Printf("[OK] Saved transcript to %s\n", outPath)
	return nil
}

// setup loads config and wires the logger and prompt override directory.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, nil, err
	}
	if cfg.PromptDir != "" {
		prompt.SetDir(cfg.PromptDir)
	}
	return cfg, logger, nil
}

// newGateway selects the backend. The mock flag and PROMPTD_FORCE_MOCK both
// force offline operation; real backends require their API key env var.
func newGateway(ctx context.Context, cfg *config.Config, forceMock bool) (llm.Gateway, error) {
	if forceMock || os.Getenv(config.ForceMockEnv) == "1" {
		return llm.NewMock(), nil
	}
	switch cfg.Backend {
	case config.BackendMock:
		return llm.NewMock(), nil
	case config.BackendOpenAI:
		key := cfg.APIKey()
		if key == "" {
			return nil, fmt.Errorf("no OPENAI_API_KEY found; use --mock for a local run")
		}
		return llm.NewOpenAI(llm.OpenAIConfig{APIKey: key, Model: cfg.Model, BaseURL: cfg.BaseURL})
	case config.BackendAnthropic:
		key := cfg.APIKey()
		if key == "" {
			return nil, fmt.Errorf("no ANTHROPIC_API_KEY found; use --mock for a local run")
		}
		return llm.NewAnthropic(llm.AnthropicConfig{APIKey: key, Model: cfg.Model})
	case config.BackendGemini:
		key := cfg.APIKey()
		if key == "" {
			return nil, fmt.Errorf("no GEMINI_API_KEY found; use --mock for a local run")
		}
		return llm.NewGemini(ctx, llm.GeminiConfig{APIKey: key, Model: cfg.Model, RPS: cfg.RPS, Burst: cfg.Burst})
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// v1Config maps application config onto the engine config.
func v1Config(cfg *config.Config) orchestrator.V1Config {
	return orchestrator.V1Config{Config: baseConfig(cfg)}
}

// v2Config maps application config onto the engine config; a negative
// early-stop score disables early stopping.
func v2Config(cfg *config.Config) orchestrator.V2Config {
	v2 := orchestrator.V2Config{
		Config:    baseConfig(cfg),
		MaxPasses: cfg.Run.MaxPasses,
	}
	if cfg.Run.EarlyStopScore >= 0 {
		score := cfg.Run.EarlyStopScore
		v2.EarlyStopScore = &score
	}
	return v2
}

func baseConfig(cfg *config.Config) orchestrator.Config {
	return orchestrator.Config{
		MaxInputTokens:  cfg.Run.MaxInputTokens,
		MaxOutputTokens: cfg.Run.MaxOutputTokens,
		Temperature:     cfg.Run.Temperature,
		Timeout:         cfg.Timeout(),
	}
}
