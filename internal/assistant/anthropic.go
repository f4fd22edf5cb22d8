package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/barysai/barysai/internal/config"
)

const (
	anthropicVersion = "2023-06-01"
	maxResponseBytes = 1 << 20
)

// anthropic speaks the messages API over plain HTTP so that any
// compatible gateway URL can be used as an endpoint.
type anthropic struct {
	http         *http.Client
	apiKey       string
	maxTokens    int
	systemPrompt string
}

func newAnthropic(cfg config.AssistantConfig, httpClient *http.Client) *anthropic {
	return &anthropic{
		http:         httpClient,
		apiKey:       cfg.APIKey,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: cfg.SystemPrompt,
	}
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

func (a *anthropic) name() string { return "anthropic" }

func (a *anthropic) complete(ctx context.Context, endpoint, model, prompt string) (string, error) {
	payload, err := json.Marshal(anthropicRequest{
		Model:     model,
		MaxTokens: a.maxTokens,
		System:    a.systemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return ExtractText(body)
}
