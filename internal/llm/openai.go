package llm

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI talks to an OpenAI-compatible chat completions API (OpenAI, Ollama,
// vLLM and similar).
type OpenAI struct {
	api         *openai.Client
	model       string
	temperature float32
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(baseURL, apiKey, modelName string, temperature float32) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAI{
		api:         openai.NewClientWithConfig(config),
		model:       modelName,
		temperature: temperature,
	}
}

func (c *OpenAI) Name() string { return "openai" }

// Generate sends the instruction as the system message and the prompt as the
// user message.
func (c *OpenAI) Generate(ctx context.Context, system, prompt string) (string, error) {
	return c.complete(ctx, system, prompt, nil)
}

// GenerateJSON is Generate in JSON mode: the reply is a single JSON object.
func (c *OpenAI) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	return c.complete(ctx, system, prompt, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
}

func (c *OpenAI) complete(ctx context.Context, system, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    c.temperature,
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("LLM API call: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices: %w", ErrEmptyResponse)
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("LLM response", "model", c.model, "raw", raw)
	return raw, nil
}

// Ping lists models to verify the endpoint and credentials.
func (c *OpenAI) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}
