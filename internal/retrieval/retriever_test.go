package retrieval

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/metrics"
)

type stubEncyclopedia struct {
	mu      sync.Mutex
	hits    map[string]Source
	queried []string
}

func (s *stubEncyclopedia) Lookup(_ context.Context, kw string) (Source, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queried = append(s.queried, kw)
	src, ok := s.hits[kw]
	return src, ok
}

type stubSearcher struct {
	mu      sync.Mutex
	results map[string][]SearchResult
	err     error
	delay   time.Duration
	queried []string
}

func (s *stubSearcher) Search(ctx context.Context, q string) ([]SearchResult, error) {
	s.mu.Lock()
	s.queried = append(s.queried, q)
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.results[q], nil
}

func (s *stubSearcher) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queried...)
}

func wikiSource(title string) Source {
	return Source{Title: title, URL: "https://en.wikipedia.org/wiki/" + title, Snippet: title + " summary", SourceType: SourceEncyclopedia}
}

func TestSearch_EncyclopediaFirstMatchStops(t *testing.T) {
	enc := &stubEncyclopedia{hits: map[string]Source{"gravity": wikiSource("Gravity"), "physics": wikiSource("Physics")}}
	web := &stubSearcher{}
	r := NewRetriever(enc, web, time.Second, zap.NewNop(), metrics.New())

	got := r.Search(context.Background(), []string{"gravity", "physics"})
	require.Len(t, got, 1)
	assert.Equal(t, "Gravity", got[0].Title)
	assert.Equal(t, []string{"gravity"}, enc.queried)
	assert.Empty(t, web.seen())
}

func TestSearch_WebFallbackForSameKeyword(t *testing.T) {
	enc := &stubEncyclopedia{}
	web := &stubSearcher{results: map[string][]SearchResult{
		"embeddings educational explanation learning": {
			{URL: "https://shop.example.com", Title: "Shop", Body: "deals"},
			{URL: "https://cs.stanford.edu/embeddings", Title: "Stanford", Body: "word vectors"},
		},
	}}
	r := NewRetriever(enc, web, time.Second, zap.NewNop(), nil)

	got := r.Search(context.Background(), []string{"embeddings", "vectors"})
	require.Len(t, got, 1)
	assert.Equal(t, "Stanford", got[0].Title)
	assert.Equal(t, SourceWebEducational, got[0].SourceType)
	assert.Equal(t, []string{"embeddings"}, enc.queried)
}

func TestSearch_EncyclopediaFailsAndNoSearchProvider(t *testing.T) {
	r := NewRetriever(&stubEncyclopedia{}, nil, time.Second, zap.NewNop(), nil)
	assert.Empty(t, r.Search(context.Background(), []string{"embeddings"}))
}

func TestSearch_OnlyFirstThreeKeywordsTried(t *testing.T) {
	enc := &stubEncyclopedia{hits: map[string]Source{"d": wikiSource("D")}}
	web := &stubSearcher{err: errors.New("blocked")}
	r := NewRetriever(enc, web, time.Second, zap.NewNop(), nil)

	got := r.Search(context.Background(), []string{" a ", "b", "c", "d", "e"})
	assert.Empty(t, got)
	assert.Equal(t, []string{"a", "b", "c"}, enc.queried)
	assert.Len(t, web.seen(), 3)
}

func TestSearch_SlowWebSearchIsAbandoned(t *testing.T) {
	web := &stubSearcher{delay: 5 * time.Second}
	r := NewRetriever(&stubEncyclopedia{}, web, 20*time.Millisecond, zap.NewNop(), nil)

	start := time.Now()
	got := r.Search(context.Background(), []string{"a", "b"})
	assert.Empty(t, got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSearch_BoundsHold(t *testing.T) {
	enc := &stubEncyclopedia{hits: map[string]Source{"x": wikiSource("X")}}
	r := NewRetriever(enc, nil, time.Second, zap.NewNop(), nil)

	inputs := [][]string{nil, {}, {""}, {"x"}, {"y", "x"}, {"y", "z", "w", "x"}}
	for _, kws := range inputs {
		got := r.Search(context.Background(), kws)
		assert.LessOrEqual(t, len(got), MaxSources)
		for _, s := range got {
			assert.LessOrEqual(t, len([]rune(s.Snippet)), MaxSnippetLength)
		}
	}
}
