// Package llm provides clients for generative text models and the parsing
// helpers needed to recover structured data from their output.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client defines the interface for generative model providers.
type Client interface {
	// Generate sends a prompt and returns the raw text of the model's reply.
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for a generative model client.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	RateLimit   int // requests per minute, 0 disables client-side limiting
}

// NewClient creates a generative model client based on the provided
// configuration. When cfg.RateLimit is set the client is wrapped with a
// token-bucket limiter whose refill goroutine runs for the life of the
// process; callers that need to release it earlier can assert the returned
// client to io.Closer.
func NewClient(cfg Config) (Client, error) {
	var client Client
	var err error

	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		client, err = newGeminiClient(cfg)
	case "openai":
		client, err = newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	if cfg.RateLimit > 0 {
		return &ratedClient{inner: client, limiter: newRateLimiter(cfg.RateLimit)}, nil
	}
	return client, nil
}

// ratedClient applies a token-bucket rate limit before each request.
type ratedClient struct {
	inner   Client
	limiter *rateLimiter
}

func (c *ratedClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}
	return c.inner.Generate(ctx, prompt)
}

// Close stops the limiter's refill goroutine.
func (c *ratedClient) Close() error {
	c.limiter.Close()
	return nil
}
