package retrieval

import "strings"

// educationalDomains are URL substrings that mark a result as educational.
var educationalDomains = []string{
	".edu", ".org", "khanacademy", "coursera", "edx",
	"britannica", "nationalgeographic", "smithsonian",
	"mit.edu", "stanford.edu", "harvard.edu", "wikipedia",
	"sciencedirect", "nature.com", "ieee.org",
}

var educationalBodyTerms = []string{"education", "learn"}

// IsEducational accepts a result whose URL names a known educational domain
// or whose body talks about education or learning.
func IsEducational(r SearchResult) bool {
	link := strings.ToLower(r.URL)
	for _, d := range educationalDomains {
		if strings.Contains(link, d) {
			return true
		}
	}
	body := strings.ToLower(r.Body)
	for _, term := range educationalBodyTerms {
		if strings.Contains(body, term) {
			return true
		}
	}
	return false
}

// firstEducational returns the first accepted result among the first
// MaxSearchResultsInspected.
func firstEducational(results []SearchResult) (Source, bool) {
	if len(results) > MaxSearchResultsInspected {
		results = results[:MaxSearchResultsInspected]
	}
	for _, r := range results {
		if IsEducational(r) {
			return Source{
				Title:      r.Title,
				URL:        r.URL,
				Snippet:    truncate(r.Body, MaxSnippetLength),
				SourceType: SourceWebEducational,
			}, true
		}
	}
	return Source{}, false
}
