// Package llmtest provides function-field fakes of the llm collaborators for tests.
package llmtest

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jonathan/hackathon-judge/internal/llm"
)

// MockClient implements llm.Client. Unset funcs return an empty answer.
type MockClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	PredictFunc         func(ctx context.Context, prompt string, tier llm.ModelTier, params llm.GenerationParams) (string, error)

	calls   atomic.Int64
	mu      sync.Mutex
	prompts []string
}

func (m *MockClient) record(prompt string) {
	m.calls.Add(1)
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()
}

// GenerateContent records the call and delegates to GenerateContentFunc.
func (m *MockClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.record(prompt)
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

// Predict records the call and delegates to PredictFunc.
func (m *MockClient) Predict(ctx context.Context, prompt string, tier llm.ModelTier, params llm.GenerationParams) (string, error) {
	m.record(prompt)
	if m.PredictFunc != nil {
		return m.PredictFunc(ctx, prompt, tier, params)
	}
	return "", nil
}

// GetModel returns a fixed fake model name.
func (m *MockClient) GetModel(_ llm.ModelTier) string {
	return "mock-model"
}

// Close is a no-op.
func (m *MockClient) Close() error {
	return nil
}

// Calls returns the number of generation calls made.
func (m *MockClient) Calls() int {
	return int(m.calls.Load())
}

// Prompts returns a copy of every prompt received, in call order.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// MockEmbedder implements llm.Embedder.
// Without EmbedFunc it embeds with Vectors, keyed by text, falling back to a zero vector of Dim.
type MockEmbedder struct {
	EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)
	Vectors   map[string][]float32
	Dim       int

	calls atomic.Int64
}

// Embed records the call and returns the configured vectors.
func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls.Add(1)
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := m.Vectors[text]; ok {
			out[i] = v
			continue
		}
		out[i] = make([]float32, max(m.Dim, 1))
	}
	return out, nil
}

// Calls returns the number of Embed calls made.
func (m *MockEmbedder) Calls() int {
	return int(m.calls.Load())
}
