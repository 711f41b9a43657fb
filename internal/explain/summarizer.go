// Package explain produces Feynman-style explanations, their flashcards and
// feedback on a learner's own explanation.
package explain

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/tracing"
	"github.com/jgirmay/concept-explainer/internal/llm"
	"github.com/jgirmay/concept-explainer/internal/retrieval"
)

const summaryPrompt = `You are preparing study notes for a teacher.

Synthesize the key facts from the reference material below into one short,
accurate summary. Do not copy sentences verbatim. Keep the numbering of the
references so the facts can be cited as [1], [2].

Reference material:
%s
Summary:`

// Summarizer condenses retrieved sources into facts an explanation can cite.
type Summarizer struct {
	gen llm.Generator
	log *zap.Logger
}

func NewSummarizer(gen llm.Generator, log *zap.Logger) *Summarizer {
	return &Summarizer{gen: gen, log: log.Named("summarizer")}
}

// Summarize returns "" for no sources, a missing backend or any failure.
func (s *Summarizer) Summarize(ctx context.Context, sources []retrieval.Source) string {
	if len(sources) == 0 || s.gen == nil {
		return ""
	}

	ctx, span := tracing.Start(ctx, "explain.summarize")
	defer span.End()

	summary, err := s.gen.Generate(ctx, fmt.Sprintf(summaryPrompt, formatSources(sources)))
	if err != nil {
		s.log.Warn("source summary failed", zap.Int("sources", len(sources)), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(summary)
}

func formatSources(sources []retrieval.Source) string {
	var b strings.Builder
	for i, src := range sources {
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, src.Title, src.Snippet)
	}
	return b.String()
}
