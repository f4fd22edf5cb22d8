// Package assistant calls the hosted language model behind
// POST /api/assistant/reply. A Client walks a fixed list of
// (model, endpoint) candidates and returns the first usable answer.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/barysai/barysai/internal/config"
	"github.com/barysai/barysai/internal/observ"
	"go.uber.org/zap"
)

// ErrAllCandidatesFailed is returned when every candidate failed. The
// individual attempt errors are joined onto it.
var ErrAllCandidatesFailed = errors.New("assistant: all candidates failed")

// provider sends one completion request to one endpoint.
type provider interface {
	name() string
	complete(ctx context.Context, endpoint, model, prompt string) (string, error)
}

// candidate is one (model, endpoint) attempt.
type candidate struct {
	model    string
	endpoint string
}

type Client struct {
	provider   provider
	candidates []candidate
	timeout    time.Duration
	metrics    *observ.Metrics
	logger     *zap.Logger
}

// New builds a client for cfg.Provider. httpClient may be nil, in which
// case http.DefaultClient is used; per-attempt deadlines come from
// cfg.Timeout, not from the HTTP client.
func New(cfg config.AssistantConfig, httpClient *http.Client, metrics *observ.Metrics, logger *zap.Logger) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if len(cfg.Models) == 0 || len(cfg.Endpoints) == 0 {
		return nil, errors.New("assistant: at least one model and one endpoint are required")
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("assistant: timeout must be positive, got %s", cfg.Timeout)
	}

	var p provider
	switch cfg.Provider {
	case "anthropic":
		p = newAnthropic(cfg, httpClient)
	case "openai":
		p = newOpenAI(cfg, httpClient)
	default:
		return nil, fmt.Errorf("assistant: unknown provider %q", cfg.Provider)
	}

	// Model-major: try every endpoint with the preferred model before
	// falling back to the next one.
	candidates := make([]candidate, 0, len(cfg.Models)*len(cfg.Endpoints))
	for _, m := range cfg.Models {
		for _, e := range cfg.Endpoints {
			candidates = append(candidates, candidate{model: m, endpoint: e})
		}
	}

	return &Client{
		provider:   p,
		candidates: candidates,
		timeout:    cfg.Timeout,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

// Complete returns the first non-empty answer. Cancelling ctx stops the
// walk immediately.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	errs := make([]error, 0, len(c.candidates))
	for _, cand := range c.candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		start := time.Now()
		text, err := c.attempt(ctx, cand, prompt)
		if err == nil {
			c.observe(cand.model, "ok")
			c.logger.Debug("assistant reply",
				zap.String("provider", c.provider.name()),
				zap.String("model", cand.model),
				zap.Duration("took", time.Since(start)),
			)
			return text, nil
		}

		c.observe(cand.model, "error")
		c.logger.Warn("assistant candidate failed",
			zap.String("provider", c.provider.name()),
			zap.String("model", cand.model),
			zap.String("endpoint", cand.endpoint),
			zap.Error(err),
		)
		errs = append(errs, fmt.Errorf("%s via %s: %w", cand.model, cand.endpoint, err))
	}
	return "", fmt.Errorf("%w: %w", ErrAllCandidatesFailed, errors.Join(errs...))
}

func (c *Client) attempt(ctx context.Context, cand candidate, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.provider.complete(ctx, cand.endpoint, cand.model, prompt)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", &ParseError{Reason: "empty answer"}
	}
	return text, nil
}

func (c *Client) observe(model, outcome string) {
	if c.metrics != nil {
		c.metrics.AssistantCalls.WithLabelValues(model, outcome).Inc()
	}
}
