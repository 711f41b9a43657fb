package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const wikipediaPageBase = "https://en.wikipedia.org/wiki/"

var errNoArticle = errors.New("no usable article")

// WikipediaClient looks up article summaries through the REST summary
// endpoint, falling back to the MediaWiki full-text search API.
type WikipediaClient struct {
	restURL   string
	apiURL    string
	userAgent string
	http      *http.Client
	log       *zap.Logger
}

func NewWikipediaClient(restURL, apiURL, userAgent string, client *http.Client, log *zap.Logger) *WikipediaClient {
	return &WikipediaClient{
		restURL:   strings.TrimRight(restURL, "/"),
		apiURL:    apiURL,
		userAgent: userAgent,
		http:      client,
		log:       log.Named("wikipedia"),
	}
}

type summaryResponse struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// Lookup returns an encyclopedia source for keyword. Every failure is
// reported as "not found".
func (w *WikipediaClient) Lookup(ctx context.Context, keyword string) (Source, bool) {
	if strings.TrimSpace(keyword) == "" {
		return Source{}, false
	}

	summary, err := w.summary(ctx, keyword)
	if err == nil {
		return summarySource(summary), true
	}
	w.log.Debug("direct lookup failed", zap.String("keyword", keyword), zap.Error(err))

	title, snippet, err := w.search(ctx, keyword)
	if err != nil {
		w.log.Debug("search lookup failed", zap.String("keyword", keyword), zap.Error(err))
		return Source{}, false
	}

	if summary, err := w.summary(ctx, title); err == nil {
		return summarySource(summary), true
	}

	text := stripMarkup(snippet)
	if text == "" {
		return Source{}, false
	}
	return Source{
		Title:      title,
		URL:        wikipediaPageBase + escapeTitle(title),
		Snippet:    truncate(text, MaxSnippetLength),
		SourceType: SourceEncyclopedia,
	}, true
}

func (w *WikipediaClient) summary(ctx context.Context, title string) (*summaryResponse, error) {
	endpoint := w.restURL + "/page/summary/" + escapeTitle(title)

	var resp summaryResponse
	if err := w.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	if resp.Type == "disambiguation" || strings.TrimSpace(resp.Extract) == "" {
		return nil, errNoArticle
	}
	return &resp, nil
}

func (w *WikipediaClient) search(ctx context.Context, keyword string) (string, string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", keyword)
	params.Set("srlimit", "1")
	params.Set("format", "json")

	var resp searchResponse
	if err := w.getJSON(ctx, w.apiURL+"?"+params.Encode(), &resp); err != nil {
		return "", "", err
	}
	if len(resp.Query.Search) == 0 {
		return "", "", errNoArticle
	}
	hit := resp.Query.Search[0]
	return hit.Title, hit.Snippet, nil
}

func (w *WikipediaClient) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if w.userAgent != "" {
		req.Header.Set("User-Agent", w.userAgent)
	}

	res, err := w.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, res.Body)
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func summarySource(s *summaryResponse) Source {
	link := s.ContentURLs.Desktop.Page
	if link == "" {
		link = wikipediaPageBase + escapeTitle(s.Title)
	}
	return Source{
		Title:      s.Title,
		URL:        link,
		Snippet:    truncate(strings.TrimSpace(s.Extract), MaxSnippetLength),
		SourceType: SourceEncyclopedia,
	}
}

func escapeTitle(title string) string {
	return url.PathEscape(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
}

// stripMarkup returns the text content of an HTML fragment.
func stripMarkup(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	var b strings.Builder
	collectText(doc, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
