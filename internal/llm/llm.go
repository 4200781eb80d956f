// Package llm defines the model gateway boundary for promptd.
//
// The orchestration engines depend only on the Gateway interface; concrete
// backends (deterministic mock, OpenAI-compatible, Anthropic, Gemini) are
// interchangeable variants selected at construction time.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Role identifies the speaker of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Options are the per-call generation parameters. Immutable per call.
type Options struct {
	// Temperature is the sampling temperature, in [0, 2].
	Temperature float64

	// MaxOutputTokens caps the response size (rough token units).
	MaxOutputTokens int

	// Timeout is an advisory per-call ceiling forwarded to the backend.
	// Backends enforce it via context; the caller performs no cancellation.
	Timeout time.Duration
}

// Validate checks option ranges eagerly.
func (o Options) Validate() error {
	if o.Temperature < 0 || o.Temperature > 2 {
		return fmt.Errorf("temperature must be in [0, 2], got %v", o.Temperature)
	}
	if o.MaxOutputTokens < 1 {
		return fmt.Errorf("max output tokens must be >= 1, got %d", o.MaxOutputTokens)
	}
	if o.Timeout < time.Second {
		return fmt.Errorf("timeout must be >= 1s, got %v", o.Timeout)
	}
	return nil
}

// ErrEmptyResponse is returned when a backend produced no usable text.
// An empty response is a failure condition: the engines rely on errors as
// the sole degradation signal, never on empty strings.
var ErrEmptyResponse = errors.New("llm: backend returned empty response")

// Gateway generates assistant text for a conversation.
//
// Implementations must treat the turn slice as read-only and must return a
// non-nil error on any transport failure or empty-response condition.
type Gateway interface {
	Generate(ctx context.Context, turns []Turn, opts Options) (string, error)
}

// LastUserText returns the content of the newest user turn, or "".
func LastUserText(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i].Content
		}
	}
	return ""
}

// SystemText concatenates the content of all system turns.
func SystemText(turns []Turn) string {
	var out string
	for _, t := range turns {
		if t.Role == RoleSystem {
			if out != "" {
				out += "\n"
			}
			out += t.Content
		}
	}
	return out
}
