package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/hackathon-judge/internal/llm"
	"github.com/jonathan/hackathon-judge/internal/prompts"
	"github.com/jonathan/hackathon-judge/internal/vectorindex"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 6

// Index answers questions about one repository from its most relevant chunks.
type Index struct {
	chunks   []Chunk
	vectors  *vectorindex.Index
	embedder llm.Embedder
	topK     int
}

// BuildIndex embeds chunks and indexes them. An empty repository yields an index
// that answers from no context.
func BuildIndex(ctx context.Context, embedder llm.Embedder, chunks []Chunk) (*Index, error) {
	idx := &Index{chunks: chunks, embedder: embedder, topK: DefaultTopK}
	if len(chunks) == 0 {
		return idx, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.String()
	}
	vecs, err := embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed repository: %w", err)
	}
	if len(vecs) != len(chunks) {
		return nil, fmt.Errorf("got %d vectors for %d chunks", len(vecs), len(chunks))
	}

	vi, err := vectorindex.New(len(vecs[0]))
	if err != nil {
		return nil, err
	}
	for i, v := range vecs {
		if err := vi.Add(i, v); err != nil {
			return nil, err
		}
	}
	vi.Build()
	idx.vectors = vi
	return idx, nil
}

// Retrieve returns the chunks nearest to question, best first.
func (x *Index) Retrieve(ctx context.Context, question string) ([]Chunk, error) {
	if x.vectors == nil {
		return nil, nil
	}
	vecs, err := x.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("got %d vectors for the question", len(vecs))
	}
	neighbors, err := x.vectors.Nearest(vecs[0], x.topK)
	if err != nil {
		return nil, err
	}
	out := make([]Chunk, len(neighbors))
	for i, n := range neighbors {
		out[i] = x.chunks[n.Item]
	}
	return out, nil
}

// Query answers question with the model, grounding it in retrieved chunks.
func (x *Index) Query(ctx context.Context, question string, client llm.Client) (string, error) {
	chunks, err := x.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}

	excerpts := "(no source files were found in the repository)"
	if len(chunks) > 0 {
		parts := make([]string, len(chunks))
		for i, c := range chunks {
			parts[i] = c.String()
		}
		excerpts = strings.Join(parts, "\n---\n")
	}

	prompt, err := prompts.Render("code.json", "answer-with-context", map[string]string{
		"Context":  excerpts,
		"Question": question,
	})
	if err != nil {
		return "", err
	}
	answer, err := client.GenerateContent(ctx, prompt, llm.TierStandard)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}
