// Package openrouter implements the text-completion collaborator against the
// OpenRouter chat completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hari200698/Mocksy/internal/adapter/ai/tokencount"
	"github.com/hari200698/Mocksy/internal/config"
	"github.com/hari200698/Mocksy/internal/domain"
)

// Client calls OpenRouter chat completions and implements domain.AIClient.
type Client struct {
	cfg   config.Config
	hc    *http.Client
	model string
}

// New constructs a Client with an instrumented HTTP transport.
func New(cfg config.Config) *Client {
	return &Client{
		cfg: cfg,
		hc: &http.Client{
			Timeout:   cfg.AICallTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		model: cfg.AIModel,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Complete sends a single prompt and returns the provider's text. One retry
// on transient failures, then the error is returned so the calling component
// can take its deterministic fallback path.
func (c *Client) Complete(ctx domain.Context, prompt string, opts domain.CompleteOptions) (domain.Completion, error) {
	maxRetries, interval := c.cfg.AIRetryPolicy()

	var out domain.Completion
	op := func() error {
		res, err := c.completeOnce(ctx, prompt, opts)
		if err != nil {
			// Bad requests will not improve on retry.
			if errors.Is(err, domain.ErrInvalidArgument) {
				return backoff.Permanent(err)
			}
			return err
		}
		out = res
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(maxRetries)),
		ctx,
	)
	if err := backoff.Retry(op, policy); err != nil {
		return domain.Completion{}, err
	}
	return out, nil
}

func (c *Client) completeOnce(ctx context.Context, prompt string, opts domain.CompleteOptions) (domain.Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return domain.Completion{}, fmt.Errorf("op=openrouter.marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.OpenRouterBaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("op=openrouter.request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.OpenRouterAPIKey)
	if c.cfg.OpenRouterReferer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.OpenRouterReferer)
	}
	if c.cfg.OpenRouterTitle != "" {
		req.Header.Set("X-Title", c.cfg.OpenRouterTitle)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return domain.Completion{}, fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
		}
		return domain.Completion{}, fmt.Errorf("op=openrouter.do: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Completion{}, fmt.Errorf("op=openrouter.read: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.Completion{}, fmt.Errorf("%w: openrouter 429", domain.ErrRateLimited)
	case resp.StatusCode == http.StatusBadRequest:
		return domain.Completion{}, fmt.Errorf("%w: openrouter 400: %s", domain.ErrInvalidArgument, snippet(raw))
	case resp.StatusCode != http.StatusOK:
		return domain.Completion{}, fmt.Errorf("op=openrouter.status: %d: %s", resp.StatusCode, snippet(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return domain.Completion{}, fmt.Errorf("op=openrouter.decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return domain.Completion{}, fmt.Errorf("op=openrouter.decode: no choices in response")
	}

	text := parsed.Choices[0].Message.Content
	tokens := parsed.Usage.TotalTokens
	if tokens == 0 {
		// Some free-tier models omit usage; estimate locally so cost
		// rollups stay populated.
		tokens = tokencount.Estimate(prompt) + tokencount.Estimate(text)
	}

	slog.Debug("completion call finished",
		slog.String("model", c.model),
		slog.Int("tokens", tokens),
		slog.Duration("latency", time.Since(start)))

	return domain.Completion{Text: text, TokensUsed: tokens}, nil
}

func snippet(b []byte) string {
	const n = 200
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
