package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/tracing"
	"github.com/jgirmay/concept-explainer/internal/llm"
)

const keywordPrompt = `Extract educational search keywords from this learner's question.

Requirements:
- Return 3-5 keywords or short phrases that each likely have their own encyclopedia article
- Put the main topic first, then closely related terms
- Use simple, common terms
- Respond with a single comma-separated line and nothing else

Examples:
"What is photosynthesis?" -> photosynthesis, plants, biology, chlorophyll
"Explain gravity" -> gravity, physics, Isaac Newton, force, mass
"How do vaccines work?" -> vaccine, immune system, antibody, immunology

Question: %q
Keywords:`

// KeywordExtractor turns a free-text query into ordered search terms.
type KeywordExtractor struct {
	gen llm.Generator
	log *zap.Logger
}

func NewKeywordExtractor(gen llm.Generator, log *zap.Logger) *KeywordExtractor {
	return &KeywordExtractor{gen: gen, log: log.Named("keywords")}
}

// Extract returns between 1 and MaxKeywords terms, always including query.
func (k *KeywordExtractor) Extract(ctx context.Context, query string) []string {
	if k.gen == nil {
		return fallbackKeywords(query)
	}

	ctx, span := tracing.Start(ctx, "retrieval.extract_keywords")
	defer span.End()

	resp, err := k.gen.Generate(ctx, fmt.Sprintf(keywordPrompt, query))
	if err != nil {
		k.log.Warn("keyword extraction failed, using query tokens", zap.Error(err))
		return fallbackKeywords(query)
	}

	keywords := parseKeywords(query, resp)
	if keywords == nil {
		k.log.Warn("keyword response had no terms, using query tokens", zap.String("response", resp))
		return fallbackKeywords(query)
	}
	return keywords
}

// fallbackKeywords is the query followed by its first two tokens.
func fallbackKeywords(query string) []string {
	words := strings.Fields(query)
	if len(words) > 2 {
		words = words[:2]
	}
	return append([]string{query}, words...)
}

func parseKeywords(query, resp string) []string {
	resp = strings.TrimSpace(llm.StripCodeFences(resp))
	if idx := strings.LastIndex(strings.ToLower(resp), "keywords:"); idx >= 0 {
		resp = resp[idx+len("keywords:"):]
	}

	parts := strings.FieldsFunc(resp, func(r rune) bool { return r == ',' || r == '\n' })
	terms := lo.FilterMap(parts, func(p string, _ int) (string, bool) {
		p = strings.Trim(strings.TrimSpace(p), `"'*-• `)
		return p, p != ""
	})
	if len(terms) == 0 {
		return nil
	}

	// the query must survive truncation
	if idx := lo.IndexOf(terms, query); idx < 0 || idx >= MaxKeywords {
		terms = append([]string{query}, lo.Without(terms, query)...)
	}
	if len(terms) > MaxKeywords {
		terms = terms[:MaxKeywords]
	}
	return terms
}
