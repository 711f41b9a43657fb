package explain

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/metrics"
	"github.com/jgirmay/concept-explainer/internal/llm/llmtest"
	"github.com/jgirmay/concept-explainer/internal/retrieval"
)

type staticKeywords []string

func (k staticKeywords) Extract(context.Context, string) []string { return k }

type staticSources []retrieval.Source

func (s staticSources) Search(context.Context, []string) []retrieval.Source { return s }

var wikiPhotosynthesis = retrieval.Source{
	Title:      "Photosynthesis",
	URL:        "https://en.wikipedia.org/wiki/Photosynthesis",
	Snippet:    "Photosynthesis converts light energy into chemical energy.",
	SourceType: retrieval.SourceEncyclopedia,
}

func TestExplain_NoBackendPlaceholder(t *testing.T) {
	tests := []struct {
		name    string
		sources staticSources
	}{
		{"with sources", staticSources{wikiPhotosynthesis}},
		{"without sources", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := NewExplainer(nil, staticKeywords{"photosynthesis"}, tt.sources, zap.NewNop(), nil)
			res := ex.Explain(context.Background(), "photosynthesis")

			assert.Equal(t, "Explanation for: photosynthesis (Gemini API not configured)", res.Explanation)
			assert.Equal(t, ModePlaceholder, res.Mode)
			assert.Equal(t, []string{"photosynthesis"}, res.Keywords)
			assert.Len(t, res.Sources, len(tt.sources))
		})
	}
}

func TestExplain_WithSourcesUsesSummaryAndCitations(t *testing.T) {
	gen := &llmtest.Fake{
		Rules: []llmtest.Rule{
			{Contains: []string{"Synthesize the key facts"}, Response: "Plants turn light into sugar [1]."},
			{Contains: []string{"verified information", "Plants turn light into sugar [1]."}, Response: "  Photosynthesis is how plants eat [1].  "},
		},
	}
	m := metrics.New()
	ex := NewExplainer(gen, staticKeywords{"photosynthesis", "plants"}, staticSources{wikiPhotosynthesis}, zap.NewNop(), m)

	res := ex.Explain(context.Background(), "photosynthesis")
	assert.Equal(t, "Photosynthesis is how plants eat [1].", res.Explanation)
	assert.Equal(t, ModeSourced, res.Mode)
	require.Len(t, res.Sources, 1)
	assert.Equal(t, "Photosynthesis", res.Sources[0].Title)

	prompts := gen.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "[1] Photosynthesis: Photosynthesis converts light energy")
	assert.Contains(t, prompts[1], "[1] or [2]")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Explanations.WithLabelValues(ModeSourced)))
}

func TestExplain_WithoutSourcesOmitsCitations(t *testing.T) {
	gen := &llmtest.Fake{Default: "Gravity pulls things together."}
	ex := NewExplainer(gen, staticKeywords{"gravity"}, staticSources{}, zap.NewNop(), nil)

	res := ex.Explain(context.Background(), "gravity")
	assert.Equal(t, "Gravity pulls things together.", res.Explanation)
	assert.Equal(t, ModeUnsourced, res.Mode)
	assert.NotNil(t, res.Sources)
	assert.Empty(t, res.Sources)

	prompts := gen.Prompts()
	require.Len(t, prompts, 1, "no summary call without sources")
	assert.Contains(t, prompts[0], "Do not include citations")
}

func TestExplain_GenerationErrorBecomesText(t *testing.T) {
	gen := &llmtest.Fake{Err: errors.New("quota exceeded")}
	ex := NewExplainer(gen, staticKeywords{"atoms"}, staticSources{}, zap.NewNop(), nil)

	res := ex.Explain(context.Background(), "atoms")
	assert.Equal(t, "Error generating explanation: quota exceeded", res.Explanation)
	assert.Equal(t, ModeError, res.Mode)
}

func TestExplain_FailedSummaryFallsBackToSnippets(t *testing.T) {
	gen := &llmtest.Fake{
		Rules: []llmtest.Rule{
			{Contains: []string{"Synthesize the key facts"}, Err: errors.New("timeout")},
		},
		Default: "explained",
	}
	ex := NewExplainer(gen, staticKeywords{"photosynthesis"}, staticSources{wikiPhotosynthesis}, zap.NewNop(), nil)

	res := ex.Explain(context.Background(), "photosynthesis")
	assert.Equal(t, "explained", res.Explanation)

	prompts := gen.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[1], "[1] Photosynthesis: Photosynthesis converts light energy")
}

func TestSummarize(t *testing.T) {
	t.Run("no sources makes no call", func(t *testing.T) {
		gen := &llmtest.Fake{Default: "unused"}
		s := NewSummarizer(gen, zap.NewNop())
		assert.Equal(t, "", s.Summarize(context.Background(), nil))
		assert.Equal(t, 0, gen.Calls())
	})

	t.Run("no backend", func(t *testing.T) {
		s := NewSummarizer(nil, zap.NewNop())
		assert.Equal(t, "", s.Summarize(context.Background(), []retrieval.Source{wikiPhotosynthesis}))
	})

	t.Run("failure is empty", func(t *testing.T) {
		s := NewSummarizer(&llmtest.Fake{Err: errors.New("boom")}, zap.NewNop())
		assert.Equal(t, "", s.Summarize(context.Background(), []retrieval.Source{wikiPhotosynthesis}))
	})

	t.Run("numbered sources in prompt", func(t *testing.T) {
		gen := &llmtest.Fake{Default: " facts "}
		s := NewSummarizer(gen, zap.NewNop())
		second := retrieval.Source{Title: "Chlorophyll", Snippet: "A green pigment."}

		assert.Equal(t, "facts", s.Summarize(context.Background(), []retrieval.Source{wikiPhotosynthesis, second}))
		assert.Contains(t, gen.Prompts()[0], "[2] Chlorophyll: A green pigment.")
	})
}
