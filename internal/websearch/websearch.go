// Package websearch provides the search tools the market agent uses to look up facts.
package websearch

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxChars bounds the snippet text returned by a tool.
const DefaultMaxChars = 1500

// NoResults is returned as the snippet when a search finds nothing.
const NoResults = "No good search result found"

// Tool answers a query with a short text snippet.
type Tool interface {
	Name() string
	Run(ctx context.Context, query string) (string, error)
}

// Error represents a failed search request.
type Error struct {
	Tool    string
	Query   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s search for %q: %s: %v", e.Tool, e.Query, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s search for %q: %s", e.Tool, e.Query, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// joinSnippets joins non-empty snippets with spaces and truncates to maxChars on a word boundary.
func joinSnippets(snippets []string, maxChars int) string {
	var parts []string
	for _, s := range snippets {
		if s = strings.Join(strings.Fields(s), " "); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return NoResults
	}

	text := strings.Join(parts, " ")
	if maxChars <= 0 || len(text) <= maxChars {
		return text
	}
	cut := text[:maxChars]
	if idx := strings.LastIndex(cut, " "); idx > maxChars/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
