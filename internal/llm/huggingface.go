package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultHuggingFaceURL is the hosted inference endpoint used when none is configured.
const DefaultHuggingFaceURL = "https://api-inference.huggingface.co/models/gpt2"

const hfMaxResponseBytes = 1 << 20

// HuggingFace calls the Hugging Face text-generation inference API directly.
type HuggingFace struct {
	url          string
	apiKey       string
	maxNewTokens int
	httpClient   *http.Client
}

// NewHuggingFace creates a Hugging Face provider. maxNewTokens of 0 leaves
// the model default.
func NewHuggingFace(url, apiKey string, maxNewTokens int) *HuggingFace {
	if url == "" {
		url = DefaultHuggingFaceURL
	}
	return &HuggingFace{
		url:          url,
		apiKey:       apiKey,
		maxNewTokens: maxNewTokens,
		httpClient:   &http.Client{Timeout: 2 * time.Minute},
	}
}

func (h *HuggingFace) Name() string { return "huggingface" }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	ReturnFullText bool `json:"return_full_text"`
	MaxNewTokens   int  `json:"max_new_tokens,omitempty"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

// Generate folds the instruction and prompt into a single completion input.
func (h *HuggingFace) Generate(ctx context.Context, system, prompt string) (string, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:     hfInput(system, prompt),
		Parameters: hfParameters{ReturnFullText: false, MaxNewTokens: h.maxNewTokens},
		Options:    hfOptions{WaitForModel: true},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("inference call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, hfMaxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return parseHFResponse(resp.StatusCode, data)
}

func hfInput(system, prompt string) string {
	return system + "\nUser: " + prompt + "\nAssistant:"
}

// parseHFResponse accepts [{"generated_text": "..."}]; an {"error": "..."}
// payload, a non-2xx status or any other shape is an error.
func parseHFResponse(status int, data []byte) (string, error) {
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrProvider, apiErr.Error)
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("%w: status %d", ErrProvider, status)
	}

	var generations []struct {
		GeneratedText *string `json:"generated_text"`
	}
	if err := json.Unmarshal(data, &generations); err != nil {
		return "", fmt.Errorf("%w: malformed response: %v", ErrProvider, err)
	}
	if len(generations) == 0 || generations[0].GeneratedText == nil {
		return "", fmt.Errorf("%w: response has no generated_text", ErrProvider)
	}
	return *generations[0].GeneratedText, nil
}
