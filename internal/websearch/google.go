package websearch

import (
	"context"
	"fmt"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// GoogleSearch queries a Google Programmable Search Engine.
type GoogleSearch struct {
	svc      *customsearch.Service
	cx       string
	num      int64
	maxChars int
}

// NewGoogleSearch creates a GoogleSearch tool for the given engine ID.
// Extra client options are passed through (tests use option.WithEndpoint).
func NewGoogleSearch(ctx context.Context, apiKey, cx string, opts ...option.ClientOption) (*GoogleSearch, error) {
	if apiKey == "" || cx == "" {
		return nil, fmt.Errorf("google search requires an API key and a search engine ID")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create customsearch service: %w", err)
	}
	return &GoogleSearch{svc: svc, cx: cx, num: 5, maxChars: DefaultMaxChars}, nil
}

// Name identifies the tool in logs.
func (g *GoogleSearch) Name() string { return "google" }

// Run returns the joined snippets of the top results.
func (g *GoogleSearch) Run(ctx context.Context, query string) (string, error) {
	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(g.num).Context(ctx).Do()
	if err != nil {
		return "", &Error{Tool: g.Name(), Query: query, Message: "request failed", Cause: err}
	}

	snippets := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		snippets = append(snippets, item.Snippet)
	}
	return joinSnippets(snippets, g.maxChars), nil
}
