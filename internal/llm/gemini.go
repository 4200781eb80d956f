package llm

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
	genai "google.golang.org/genai"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini is a Gateway backed by the Gemini API. Calls are throttled through
// an optional requests-per-second limiter so batch eval runs stay inside
// quota.
type Gemini struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey string
	Model  string

	// RPS throttles outbound calls; 0 disables throttling.
	RPS   float64
	Burst int
}

// NewGemini constructs the backend. The API key is required.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini backend requires an API key")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g := &Gemini{client: client, model: cfg.Model}
	if cfg.RPS > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RPS), burst)
	}
	return g, nil
}

// Generate implements Gateway. The conversation is flattened into a single
// prompt text; Gemini's content API has no separate system channel at this
// call shape, so roles are labelled inline.
func (g *Gemini) Generate(ctx context.Context, turns []Turn, opts Options) (string, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("gemini rate limit: %w", err)
		}
	}

	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("[" + strings.ToUpper(string(t.Role)) + "]\n")
		b.WriteString(t.Content)
	}

	temp := float32(opts.Temperature)
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: b.String()}}}},
		&genai.GenerateContentConfig{
			Temperature:     &temp,
			MaxOutputTokens: int32(opts.MaxOutputTokens),
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

var _ Gateway = (*Gemini)(nil)
