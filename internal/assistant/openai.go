package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/barysai/barysai/internal/config"
	openai "github.com/sashabaranov/go-openai"
)

// openAI talks to any OpenAI-compatible chat completions API. Each
// endpoint is a base URL such as https://api.openai.com/v1.
type openAI struct {
	http         *http.Client
	apiKey       string
	maxTokens    int
	systemPrompt string

	mu      sync.Mutex
	clients map[string]*openai.Client
}

func newOpenAI(cfg config.AssistantConfig, httpClient *http.Client) *openAI {
	return &openAI{
		http:         httpClient,
		apiKey:       cfg.APIKey,
		maxTokens:    cfg.MaxTokens,
		systemPrompt: cfg.SystemPrompt,
		clients:      make(map[string]*openai.Client),
	}
}

func (o *openAI) name() string { return "openai" }

func (o *openAI) client(endpoint string) *openai.Client {
	o.mu.Lock()
	defer o.mu.Unlock()
	if c, ok := o.clients[endpoint]; ok {
		return c
	}
	clientConfig := openai.DefaultConfig(o.apiKey)
	clientConfig.BaseURL = endpoint
	clientConfig.HTTPClient = o.http
	c := openai.NewClientWithConfig(clientConfig)
	o.clients[endpoint] = c
	return c
}

func (o *openAI) complete(ctx context.Context, endpoint, model, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if o.systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: o.systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	resp, err := o.client(endpoint).CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		MaxTokens: o.maxTokens,
		Messages:  messages,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", &ParseError{Reason: "no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}
