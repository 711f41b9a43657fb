package explain

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/metrics"
	"github.com/jgirmay/concept-explainer/internal/common/tracing"
	"github.com/jgirmay/concept-explainer/internal/llm"
	"github.com/jgirmay/concept-explainer/internal/retrieval"
)

const sourcedPrompt = `You are an expert educator who explains complex ideas simply using the
Feynman Technique.

Explain %q to a middle school student.

Use this verified information:
%s

Structure:
1. What is it? A plain-language definition.
2. How does it work? The mechanism, broken into small parts.
3. A real-world example or analogy.
4. Why does it matter?

Guidelines:
- Keep the language clear and engaging
- Add a citation such as [1] or [2] whenever you state a fact from the verified information`

const unsourcedPrompt = `You are an expert educator who explains complex ideas simply using the
Feynman Technique.

Explain %q to a middle school student.

Structure:
1. What is it? A plain-language definition.
2. How does it work? The mechanism, broken into small parts.
3. A real-world example or analogy.
4. Why does it matter?

Explain from general knowledge. Do not include citations.`

// Explanation modes reported to metrics.
const (
	ModeSourced     = "sourced"
	ModeUnsourced   = "unsourced"
	ModePlaceholder = "placeholder"
	ModeError       = "error"
)

// KeywordSource turns a query into search terms.
type KeywordSource interface {
	Extract(ctx context.Context, query string) []string
}

// SourceSearcher finds reference material for search terms.
type SourceSearcher interface {
	Search(ctx context.Context, keywords []string) []retrieval.Source
}

// Result is the outcome of one explain pipeline run.
type Result struct {
	Explanation string             `json:"explanation"`
	Sources     []retrieval.Source `json:"sources"`
	Keywords    []string           `json:"keywords"`
	Mode        string             `json:"-"`
}

// Explainer runs keyword extraction, retrieval, summarization and
// explanation in sequence.
type Explainer struct {
	gen        llm.Generator
	keywords   KeywordSource
	sources    SourceSearcher
	summarizer *Summarizer
	log        *zap.Logger
	metrics    *metrics.Metrics
}

func NewExplainer(gen llm.Generator, keywords KeywordSource, sources SourceSearcher, log *zap.Logger, m *metrics.Metrics) *Explainer {
	return &Explainer{
		gen:        gen,
		keywords:   keywords,
		sources:    sources,
		summarizer: NewSummarizer(gen, log),
		log:        log.Named("explainer"),
		metrics:    m,
	}
}

// Explain never fails. A missing backend yields a placeholder and a
// generation error is reported inside the explanation text.
func (e *Explainer) Explain(ctx context.Context, query string) Result {
	ctx, span := tracing.Start(ctx, "explain.pipeline", attribute.String("query", query))
	defer span.End()

	keywords := e.keywords.Extract(ctx, query)
	sources := e.sources.Search(ctx, keywords)
	e.log.Info("retrieval finished",
		zap.String("query", query),
		zap.Strings("keywords", keywords),
		zap.Int("sources", len(sources)),
	)

	var res Result
	if len(sources) > 0 {
		summary := e.summarizer.Summarize(ctx, sources)
		res = e.generate(ctx, query, fmt.Sprintf(sourcedPrompt, query, summaryOrSnippets(summary, sources)), ModeSourced)
	} else {
		res = e.generate(ctx, query, fmt.Sprintf(unsourcedPrompt, query), ModeUnsourced)
	}

	res.Keywords = keywords
	res.Sources = sources
	if res.Sources == nil {
		res.Sources = []retrieval.Source{}
	}

	e.metrics.ObserveExplanation(res.Mode)
	span.SetAttributes(attribute.String("mode", res.Mode))
	return res
}

func (e *Explainer) generate(ctx context.Context, query, prompt, mode string) Result {
	if e.gen == nil {
		return Result{Explanation: Placeholder(query), Mode: ModePlaceholder}
	}

	text, err := e.gen.Generate(ctx, prompt)
	if err != nil {
		e.log.Warn("explanation generation failed", zap.String("query", query), zap.Error(err))
		return Result{Explanation: fmt.Sprintf("Error generating explanation: %v", err), Mode: ModeError}
	}
	return Result{Explanation: strings.TrimSpace(text), Mode: mode}
}

// Placeholder is the explanation returned when no backend is configured.
func Placeholder(query string) string {
	return fmt.Sprintf("Explanation for: %s (Gemini API not configured)", query)
}

// summaryOrSnippets falls back to the raw numbered snippets when the
// summary step produced nothing, so the citations still line up.
func summaryOrSnippets(summary string, sources []retrieval.Source) string {
	if summary != "" {
		return summary
	}
	return formatSources(sources)
}
