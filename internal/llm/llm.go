// Package llm turns a system instruction and candidate content into mentor
// feedback through a pluggable text-generation provider.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// DefaultFallback is returned to callers whenever the provider fails.
const DefaultFallback = "I apologize, but I'm having trouble processing your request right now. Please try again later."

var (
	// ErrEmptyResponse is returned when a provider replies with no text.
	ErrEmptyResponse = errors.New("empty response from provider")
	// ErrProvider wraps errors reported by the provider itself.
	ErrProvider = errors.New("provider error")
)

// Provider generates text for a system instruction and a prompt. How the two
// are combined is up to the provider.
type Provider interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Pinger is implemented by providers that can check their endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONGenerator is implemented by providers that can constrain a reply to a
// single JSON object.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, system, prompt string) (string, error)
}

// Gateway wraps a Provider and never surfaces its failures to callers.
type Gateway struct {
	provider Provider
	fallback string
	timeout  time.Duration
}

// New creates a Gateway. An empty fallback selects DefaultFallback; a zero
// timeout leaves deadlines to the caller's context.
func New(p Provider, fallback string, timeout time.Duration) *Gateway {
	if fallback == "" {
		fallback = DefaultFallback
	}
	return &Gateway{provider: p, fallback: fallback, timeout: timeout}
}

// Fallback returns the text handed out when the provider fails.
func (g *Gateway) Fallback() string {
	return g.fallback
}

// ProviderName reports which backend the gateway talks to.
func (g *Gateway) ProviderName() string {
	return g.provider.Name()
}

// Evaluate returns the provider's reply for system and content, or the
// fallback text if the call fails. conversationID is only logged for now.
func (g *Gateway) Evaluate(ctx context.Context, system, content, conversationID string) string {
	text, err := g.generate(ctx, system, content, false)
	if err != nil {
		slog.Error("AI feedback failed, using fallback",
			"provider", g.provider.Name(),
			"conversation_id", conversationID,
			"error", err,
		)
		return g.fallback
	}
	return text
}

// EvaluateStory requests a two-part PPDT evaluation and parses the reply.
// Providers that support it are asked for a JSON object.
func (g *Gateway) EvaluateStory(ctx context.Context, system, content string) StoryFeedback {
	text, err := g.generate(ctx, system, content, true)
	if err != nil {
		slog.Error("AI story evaluation failed, using fallback",
			"provider", g.provider.Name(),
			"error", err,
		)
		return StoryFeedback{Evaluation: g.fallback, Fallback: true}
	}
	return ParseStoryFeedback(text)
}

// Ping checks the provider endpoint when the provider supports it.
func (g *Gateway) Ping(ctx context.Context) error {
	p, ok := g.provider.(Pinger)
	if !ok {
		return nil
	}
	return p.Ping(ctx)
}

func (g *Gateway) generate(ctx context.Context, system, content string, jsonMode bool) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	var (
		text string
		err  error
	)
	if jg, ok := g.provider.(JSONGenerator); ok && jsonMode {
		text, err = jg.GenerateJSON(ctx, system, content)
	} else {
		text, err = g.provider.Generate(ctx, system, content)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", g.provider.Name(), err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", g.provider.Name(), ErrEmptyResponse)
	}
	slog.Debug("AI feedback generated",
		"provider", g.provider.Name(),
		"elapsed", time.Since(start),
		"chars", len(text),
	)
	return text, nil
}
