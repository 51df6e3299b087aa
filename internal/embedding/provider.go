// Package embedding turns text into fixed-dimension vectors via external
// embedding APIs and provides the similarity math used by the matcher.
package embedding

import (
	"context"
	"fmt"
	"strings"
)

// Provider defines the contract for text embedding services. Every vector a
// provider returns has exactly Dimension() components; stored category
// embeddings and query embeddings must share that dimension before any
// similarity comparison.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// Config holds configuration for an embedding provider.
type Config struct {
	Provider  string
	APIKey    string
	Model     string
	Dimension int
}

// NewProvider creates an embedding provider based on the provided configuration.
func NewProvider(cfg Config) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return newGeminiProvider(cfg)
	case "openai":
		return newOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
