// Package projectsearch answers semantic project queries with an index rebuilt on every call.
package projectsearch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jonathan/hackathon-judge/internal/llm"
	"github.com/jonathan/hackathon-judge/internal/types"
	"github.com/jonathan/hackathon-judge/internal/vectorindex"
)

// DefaultLimit is the number of projects returned when the caller does not ask for a limit.
const DefaultLimit = 10

// ProjectLister is the part of the project store the searcher reads.
type ProjectLister interface {
	ListProjects(ctx context.Context) ([]types.Project, error)
}

// EmptyCorpusError is returned when there are no projects to search.
type EmptyCorpusError struct{}

func (e *EmptyCorpusError) Error() string {
	return "no projects to search"
}

// EmbeddingError wraps a failure of the embedding provider.
type EmbeddingError struct {
	Stage string
	Cause error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding %s failed: %v", e.Stage, e.Cause)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Cause
}

// Result is a matched project and its angular distance to the query.
type Result struct {
	Project  types.Project `json:"project"`
	Distance float64       `json:"distance"`
}

// Searcher embeds every current project and the query, then ranks projects by distance.
type Searcher struct {
	store    ProjectLister
	embedder llm.Embedder
}

// New creates a Searcher.
func New(store ProjectLister, embedder llm.Embedder) *Searcher {
	return &Searcher{store: store, embedder: embedder}
}

// Document returns the text embedded for a project.
func Document(p types.Project) string {
	return fmt.Sprintf("Project Description: %s Hackathon Theme: %s", p.LongDescription, p.Theme)
}

// Search returns up to limit projects nearest to query. A non-positive limit uses DefaultLimit.
// Any failure aborts the whole call; there are no partial results.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	start := time.Now()

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}
	if len(projects) == 0 {
		return nil, &EmptyCorpusError{}
	}

	docs := make([]string, len(projects))
	for i, p := range projects {
		docs[i] = Document(p)
	}
	docVecs, err := s.embedder.Embed(ctx, docs)
	if err != nil {
		return nil, &EmbeddingError{Stage: "documents", Cause: err}
	}
	if len(docVecs) != len(docs) {
		return nil, &EmbeddingError{Stage: "documents", Cause: fmt.Errorf("got %d vectors for %d documents", len(docVecs), len(docs))}
	}

	queryVecs, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, &EmbeddingError{Stage: "query", Cause: err}
	}
	if len(queryVecs) != 1 {
		return nil, &EmbeddingError{Stage: "query", Cause: fmt.Errorf("got %d vectors for the query", len(queryVecs))}
	}

	ix, err := vectorindex.New(len(docVecs[0]))
	if err != nil {
		return nil, &EmbeddingError{Stage: "documents", Cause: err}
	}
	for i, vec := range docVecs {
		if err := ix.Add(i, vec); err != nil {
			return nil, &EmbeddingError{Stage: "documents", Cause: err}
		}
	}
	ix.Build()

	neighbors, err := ix.Nearest(queryVecs[0], limit)
	if err != nil {
		return nil, &EmbeddingError{Stage: "query", Cause: err}
	}

	results := make([]Result, len(neighbors))
	for i, n := range neighbors {
		results[i] = Result{Project: projects[n.Item], Distance: n.Distance}
	}
	log.Printf("[SEARCH] %d projects indexed, %d results in %v", len(projects), len(results), time.Since(start))
	return results, nil
}
