package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultOracleBase  = "https://api.openai.com/v1"
	defaultOracleModel = "gpt-4o-mini"
	defaultTimeout     = 30 * time.Second
)

// Config configures the OpenAI-compatible oracle.
type Config struct {
	// APIKey is the bearer token used to authenticate against the API.
	APIKey string

	// BaseURL overrides the API endpoint. Useful for local models (Ollama),
	// Azure OpenAI, or any other OpenAI-compatible endpoint.
	// Defaults to https://api.openai.com/v1 when empty.
	BaseURL string

	// Model is the chat model to use. Defaults to gpt-4o-mini when empty
	// (cost-efficient, sufficient for intent translation).
	Model string

	// Timeout is the HTTP request timeout. Defaults to 30 s. The oracle call
	// is synchronous; a slow completion blocks the conversation turn.
	Timeout time.Duration
}

// openAIOracle implements Oracle against the OpenAI chat completions API,
// using JSON-mode output so the reply is at least syntactically parseable.
type openAIOracle struct {
	cfg    Config
	client *http.Client
}

// NewOracle returns an Oracle backed by the OpenAI (or compatible) chat API.
// The returned oracle is safe for concurrent use.
func NewOracle(cfg Config) Oracle {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOracleBase
	}
	if cfg.Model == "" {
		cfg.Model = defaultOracleModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &openAIOracle{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// --- minimal OpenAI wire types ---

type oaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type oaiRequest struct {
	Model          string       `json:"model"`
	Messages       []oaiMessage `json:"messages"`
	MaxTokens      int          `json:"max_tokens,omitempty"`
	Temperature    float64      `json:"temperature"`
	ResponseFormat *oaiFormat   `json:"response_format,omitempty"`
}

type oaiFormat struct {
	Type string `json:"type"` // "json_object"
}

type oaiResponse struct {
	Choices []oaiChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type oaiChoice struct {
	Message      oaiMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

// Complete sends the prompt as a single user message and returns the raw
// completion text.
func (o *openAIOracle) Complete(ctx context.Context, prompt string) (string, error) {
	body := oaiRequest{
		Model:          o.cfg.Model,
		Messages:       []oaiMessage{{Role: "user", Content: prompt}},
		MaxTokens:      512,
		Temperature:    0,
		ResponseFormat: &oaiFormat{Type: "json_object"},
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("oracle: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.cfg.BaseURL+"/chat/completions",
		bytes.NewReader(data),
	)
	if err != nil {
		return "", fmt.Errorf("oracle: create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("oracle: read response body: %w", err)
	}

	var oaiResp oaiResponse
	if err := json.Unmarshal(respBody, &oaiResp); err != nil {
		return "", fmt.Errorf("oracle: decode API response: %w", err)
	}

	if oaiResp.Error != nil {
		return "", fmt.Errorf("%w: API error (%s): %s", ErrUnavailable, oaiResp.Error.Type, oaiResp.Error.Message)
	}

	if len(oaiResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned (HTTP %d)", ErrUnavailable, resp.StatusCode)
	}

	return oaiResp.Choices[0].Message.Content, nil
}
