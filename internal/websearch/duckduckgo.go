package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonathan/hackathon-judge/internal/httputil"
)

// DefaultDuckDuckGoURL is the HTML-only DuckDuckGo endpoint.
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com"

// DefaultUserAgent is the user agent string for search requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; HackathonJudge/1.0)"

// DuckDuckGo scrapes the DuckDuckGo HTML results page. It needs no API key.
type DuckDuckGo struct {
	BaseURL    string
	Client     *http.Client
	UserAgent  string
	MaxResults int
	MaxChars   int
}

// NewDuckDuckGo creates a DuckDuckGo tool with default settings.
func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		BaseURL:    DefaultDuckDuckGoURL,
		Client:     &http.Client{Timeout: 30 * time.Second},
		UserAgent:  DefaultUserAgent,
		MaxResults: 5,
		MaxChars:   DefaultMaxChars,
	}
}

// Name identifies the tool in logs.
func (d *DuckDuckGo) Name() string { return "duckduckgo" }

// Run fetches the results page for query and returns the joined result snippets.
func (d *DuckDuckGo) Run(ctx context.Context, query string) (string, error) {
	endpoint := strings.TrimRight(d.BaseURL, "/") + "/html/?" + url.Values{"q": {query}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", &Error{Tool: d.Name(), Query: query, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", d.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, d.Client, req, 0)
	if err != nil {
		return "", &Error{Tool: d.Name(), Query: query, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{Tool: d.Name(), Query: query, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", &Error{Tool: d.Name(), Query: query, Message: "failed to parse HTML", Cause: err}
	}

	var snippets []string
	doc.Find(".result__snippet").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		snippets = append(snippets, s.Text())
		return d.MaxResults <= 0 || len(snippets) < d.MaxResults
	})
	return joinSnippets(snippets, d.MaxChars), nil
}
