package retrieval

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// SearchResult is one organic web search hit.
type SearchResult struct {
	URL   string
	Title string
	Body  string
}

// WebSearcher runs a general web search.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// DuckDuckGoClient scrapes the JavaScript-free DuckDuckGo results page.
type DuckDuckGoClient struct {
	endpoint  string
	userAgent string
	http      *http.Client
}

func NewDuckDuckGoClient(endpoint, userAgent string, client *http.Client) *DuckDuckGoClient {
	return &DuckDuckGoClient{
		endpoint:  endpoint,
		userAgent: userAgent,
		http:      client,
	}
}

func (d *DuckDuckGoClient) Search(ctx context.Context, query string) ([]SearchResult, error) {
	form := url.Values{}
	form.Set("q", query)
	form.Set("kl", "us-en")
	form.Set("kp", "-1") // moderate safe search

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	res, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("unexpected status %d", res.StatusCode)
	}

	return parseResultsPage(res.Body, MaxSearchResultsInspected)
}

// parseResultsPage extracts up to limit results in page order. Each result
// starts at an anchor with class result__a; the next result__snippet
// element supplies its body.
func parseResultsPage(r io.Reader, limit int) ([]SearchResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	var results []SearchResult
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			switch {
			case n.Data == "a" && hasClass(n, "result__a"):
				if len(results) == limit {
					return false
				}
				results = append(results, SearchResult{
					URL:   resolveResultURL(attr(n, "href")),
					Title: nodeText(n),
				})
				return true
			case hasClass(n, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].Body == "" {
					results[len(results)-1].Body = nodeText(n)
				}
				return true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(doc)

	out := results[:0]
	for _, res := range results {
		if res.URL != "" {
			out = append(out, res)
		}
	}
	return out, nil
}

// resolveResultURL unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveResultURL(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if strings.HasSuffix(u.Hostname(), "duckduckgo.com") && strings.HasPrefix(u.Path, "/l/") {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	collectText(n, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}
