// Package retrieval turns a learner's query into search terms and finds at
// most a couple of trustworthy reference snippets for them.
package retrieval

import "unicode/utf8"

const (
	// MaxKeywords bounds the extracted search terms, original query included.
	MaxKeywords = 5
	// MaxKeywordAttempts is how many keywords are tried before giving up.
	MaxKeywordAttempts = 3
	// MaxSources bounds the records returned by a search.
	MaxSources = 2
	// MaxSnippetLength is measured in characters, not bytes.
	MaxSnippetLength = 300
	// MaxSearchResultsInspected bounds how many web results are classified.
	MaxSearchResultsInspected = 5
)

type SourceType string

const (
	SourceEncyclopedia   SourceType = "encyclopedia"
	SourceWebEducational SourceType = "web_educational"
)

// Source is one retrieved reference.
type Source struct {
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Snippet    string     `json:"snippet"`
	SourceType SourceType `json:"source_type"`
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
