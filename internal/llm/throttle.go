package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// ThrottledClient bounds the request rate of an underlying Client.
// Every generation call waits for a token before it is forwarded.
type ThrottledClient struct {
	Client
	limiter *rate.Limiter
}

// NewThrottledClient wraps c with a limiter allowing qps requests per second and the given burst.
// A non-positive qps returns c unchanged.
func NewThrottledClient(c Client, qps float64, burst int) Client {
	if qps <= 0 {
		return c
	}
	return &ThrottledClient{Client: c, limiter: rate.NewLimiter(rate.Limit(qps), max(burst, 1))}
}

// GenerateContent waits for the limiter and forwards the call
func (t *ThrottledClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return t.Client.GenerateContent(ctx, prompt, tier)
}

// Predict waits for the limiter and forwards the call
func (t *ThrottledClient) Predict(ctx context.Context, prompt string, tier ModelTier, params GenerationParams) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}
	return t.Client.Predict(ctx, prompt, tier, params)
}

// ThrottledEmbedder bounds the request rate of an underlying Embedder.
type ThrottledEmbedder struct {
	embedder Embedder
	limiter  *rate.Limiter
}

// NewThrottledEmbedder wraps e like NewThrottledClient.
func NewThrottledEmbedder(e Embedder, qps float64, burst int) Embedder {
	if qps <= 0 {
		return e
	}
	return &ThrottledEmbedder{embedder: e, limiter: rate.NewLimiter(rate.Limit(qps), max(burst, 1))}
}

// Embed waits for the limiter and forwards the call
func (t *ThrottledEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.embedder.Embed(ctx, texts)
}
