package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/solomia/solomia/internal/common"
)

func newTestGeminiClient(t *testing.T, handler http.HandlerFunc) *geminiClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &geminiClient{
		apiKey:      "test-key",
		model:       "gemini-2.5-flash",
		baseURL:     server.URL,
		temperature: 0.2,
		maxTokens:   2048,
		httpClient:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestGeminiGenerate(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing API key, got query %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"candidates": [{"content": {"parts": [{"text": "Бобо"}, {"text": "ві"}]}}]}`))
	})

	got, err := client.Generate(context.Background(), "classify: сочевиця")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if got != "Бобові" {
		t.Errorf("expected concatenated parts Бобові, got %q", got)
	}
}

func TestGeminiGenerateAPIError(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "invalid key"}}`, http.StatusForbidden)
	})

	_, err := client.Generate(context.Background(), "prompt")
	if !common.IsProviderError(err) {
		t.Errorf("expected ProviderError, got %v", err)
	}
}

func TestGeminiGenerateNoCandidates(t *testing.T) {
	client := newTestGeminiClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	})

	_, err := client.Generate(context.Background(), "prompt")
	if !common.IsProviderError(err) {
		t.Errorf("expected ProviderError, got %v", err)
	}
}

func TestNewClient(t *testing.T) {
	if _, err := NewClient(Config{Provider: "gemini"}); err == nil {
		t.Error("expected error for missing API key")
	}
	if _, err := NewClient(Config{Provider: "llama", APIKey: "k"}); err == nil {
		t.Error("expected error for unsupported provider")
	}

	client, err := NewClient(Config{Provider: "gemini", APIKey: "k", RateLimit: 10})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, ok := client.(*ratedClient); !ok {
		t.Fatal("expected rate-limited client when RateLimit is set")
	}
	closer, ok := client.(io.Closer)
	if !ok {
		t.Fatal("expected rate-limited client to be closable")
	}
	_ = closer.Close()
}
