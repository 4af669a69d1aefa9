package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// maxEmbedBatch is the largest batch the embedding endpoint accepts.
const maxEmbedBatch = 100

// Embedder converts texts into fixed-length vectors.
// The result has exactly one vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// GeminiEmbedder implements Embedder with Gemini batch embeddings
type GeminiEmbedder struct {
	model     *genai.EmbeddingModel
	batchSize int
}

// Embed embeds texts, splitting into provider-sized batches when needed
func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := min(start+e.batchSize, len(texts))

		batch := e.model.NewBatch()
		for _, text := range texts[start:end] {
			batch.AddContent(genai.Text(text))
		}

		resp, err := e.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch: %w", err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(resp.Embeddings), end-start)
		}
		for _, emb := range resp.Embeddings {
			vectors = append(vectors, emb.Values)
		}
	}
	return vectors, nil
}
