package embedding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/solomia/solomia/internal/common"
)

const openAIEmbedURL = "https://api.openai.com/v1/embeddings"

// openAIProvider implements the Provider interface for the OpenAI embeddings API.
type openAIProvider struct {
	httpClient *http.Client
	apiKey     string
	model      string
	url        string
	dimension  int
}

// newOpenAIProvider creates a new OpenAI embedding client.
func newOpenAIProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: OpenAI API key is required", common.ErrMissingConfig)
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-3-small"
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 1536
	}

	return &openAIProvider{
		apiKey:    cfg.APIKey,
		model:     model,
		url:       openAIEmbedURL,
		dimension: dimension,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Dimension returns the dimensionality of the vectors this provider produces.
func (p *openAIProvider) Dimension() int {
	return p.dimension
}

// Embed generates an embedding vector for the given text.
func (p *openAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	requestBody := map[string]any{
		"input":      []string{text},
		"model":      p.model,
		"dimensions": p.dimension,
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, common.NewProviderError("openai", "embed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewProviderError("openai", "embed", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, common.NewProviderError("openai", "embed",
			fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body)))
	}

	var response openAIEmbedResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, common.NewProviderError("openai", "embed", fmt.Errorf("failed to parse response: %w", err))
	}

	if len(response.Data) == 0 || len(response.Data[0].Embedding) == 0 {
		return nil, common.NewProviderError("openai", "embed", fmt.Errorf("empty embedding returned"))
	}

	vector := response.Data[0].Embedding
	if len(vector) != p.dimension {
		return nil, common.NewProviderError("openai", "embed",
			fmt.Errorf("embedding has %d dimensions, expected %d", len(vector), p.dimension))
	}

	return vector, nil
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}
