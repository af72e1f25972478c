package llm

import (
	"fmt"
	"strings"
)

// ProviderConfig selects and configures a provider backend.
type ProviderConfig struct {
	Kind        string // openai | huggingface
	BaseURL     string // OpenAI-compatible base URL
	APIKey      string
	Model       string
	Temperature float32
	HFURL       string // Hugging Face model endpoint
	HFMaxTokens int
}

// NewProvider builds the backend named by cfg.Kind.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "openai", "":
		return NewOpenAI(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Temperature), nil
	case "huggingface", "hf":
		return NewHuggingFace(cfg.HFURL, cfg.APIKey, cfg.HFMaxTokens), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want openai or huggingface)", cfg.Kind)
	}
}
