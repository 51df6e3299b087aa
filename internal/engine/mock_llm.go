package engine

import (
	"context"
	"sync"
)

// MockGenerator is a test implementation of the llm.Client interface. It
// replays queued responses in order and records every prompt it receives.
type MockGenerator struct {
	err       error
	responses []string
	prompts   []string
	mu        sync.Mutex
}

// NewMockGenerator creates a mock generative client that replays responses.
func NewMockGenerator(responses ...string) *MockGenerator {
	return &MockGenerator{responses: responses}
}

// FailWith makes every subsequent Generate call return err.
func (m *MockGenerator) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Generate returns the next queued response. The last response repeats once
// the queue is exhausted.
func (m *MockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", nil
	}
	response := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return response, nil
}

// Prompts returns a copy of every prompt seen so far.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// CallCount returns how many Generate calls were made.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// MockEmbedder is a test implementation of the embedding.Provider interface.
// Texts map to fixed vectors; unknown texts get the fallback vector.
type MockEmbedder struct {
	err      error
	vectors  map[string][]float64
	fallback []float64
	dim      int
	calls    int
	mu       sync.Mutex
}

// NewMockEmbedder creates a mock provider of dim-component vectors.
func NewMockEmbedder(dim int) *MockEmbedder {
	fallback := make([]float64, dim)
	if dim > 0 {
		fallback[0] = 1
	}
	return &MockEmbedder{
		vectors:  make(map[string][]float64),
		fallback: fallback,
		dim:      dim,
	}
}

// SetVector fixes the vector returned for text.
func (m *MockEmbedder) SetVector(text string, vec []float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vectors[text] = vec
}

// FailWith makes every subsequent Embed call return err.
func (m *MockEmbedder) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Embed returns the configured vector for text.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if vec, ok := m.vectors[text]; ok {
		return vec, nil
	}
	return m.fallback, nil
}

// Dimension returns the vector size this mock produces.
func (m *MockEmbedder) Dimension() int {
	return m.dim
}

// CallCount returns how many Embed calls were made.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
