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

const geminiEmbedBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// geminiProvider implements the Provider interface for the Gemini embedding API.
type geminiProvider struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
	dimension  int
}

// newGeminiProvider creates a new Gemini embedding client.
func newGeminiProvider(cfg Config) (Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", common.ErrMissingConfig)
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-004"
	}

	dimension := cfg.Dimension
	if dimension == 0 {
		dimension = 768
	}

	return &geminiProvider{
		apiKey:    cfg.APIKey,
		model:     model,
		baseURL:   geminiEmbedBaseURL,
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
func (p *geminiProvider) Dimension() int {
	return p.dimension
}

// Embed generates an embedding vector for the given text.
func (p *geminiProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	requestBody := geminiEmbedRequest{
		Model: "models/" + p.model,
	}
	requestBody.Content.Parts = []geminiPart{{Text: text}}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:embedContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(jsonBody)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, common.NewProviderError("gemini", "embed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, common.NewProviderError("gemini", "embed", fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, common.NewProviderError("gemini", "embed",
			fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body)))
	}

	var response geminiEmbedResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, common.NewProviderError("gemini", "embed", fmt.Errorf("failed to parse response: %w", err))
	}

	values := response.Embedding.Values
	if len(values) == 0 {
		return nil, common.NewProviderError("gemini", "embed", fmt.Errorf("empty embedding returned"))
	}
	if len(values) != p.dimension {
		return nil, common.NewProviderError("gemini", "embed",
			fmt.Errorf("embedding has %d dimensions, expected %d", len(values), p.dimension))
	}

	return values, nil
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedRequest struct {
	Model   string `json:"model"`
	Content struct {
		Parts []geminiPart `json:"parts"`
	} `json:"content"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}
