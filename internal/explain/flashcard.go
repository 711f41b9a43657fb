package explain

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/tracing"
	"github.com/jgirmay/concept-explainer/internal/llm"
)

// MaxEssenceSource bounds how much of the explanation feeds the essence prompt.
const MaxEssenceSource = 500

const essencePrompt = `From this explanation about %q:
%s

Extract:
1. The single most important concept (one sentence)
2. A simple analogy or real-world example
3. Why this matters in everyday life

Keep each point to one sentence.`

const flashcardPrompt = `You are a minimalist designer who creates calm, zen-inspired educational
flashcards.

Design an SVG flashcard for the topic %q using this core essence:
%s

Requirements:
- Size: width="800" height="600" with xmlns="http://www.w3.org/2000/svg"
- Dark theme: background #1a1a1a, text #f0f0f0
- Layout: title at the top (24px or larger), the core idea in the middle
  (14px or larger), one simple meaningful visual element
- Generous negative space and a balanced layout

Generate ONLY valid SVG code, starting with <svg and ending with </svg>.`

var errNoSVG = errors.New("response contains no svg element")

// FlashcardGenerator renders one SVG flashcard per explanation.
type FlashcardGenerator struct {
	gen llm.Generator
	log *zap.Logger
}

func NewFlashcardGenerator(gen llm.Generator, log *zap.Logger) *FlashcardGenerator {
	return &FlashcardGenerator{gen: gen, log: log.Named("flashcard")}
}

// Generate always returns well-formed SVG markup.
func (f *FlashcardGenerator) Generate(ctx context.Context, topic, explanation string) string {
	if f.gen == nil {
		return FallbackSVG(topic)
	}

	ctx, span := tracing.Start(ctx, "explain.flashcard")
	defer span.End()

	essence := f.coreEssence(ctx, topic, explanation)
	resp, err := f.gen.Generate(ctx, fmt.Sprintf(flashcardPrompt, topic, essence))
	if err != nil {
		f.log.Warn("flashcard generation failed", zap.String("topic", topic), zap.Error(err))
		return FallbackSVG(topic)
	}

	svg, err := cleanSVG(resp)
	if err != nil {
		f.log.Warn("flashcard response rejected", zap.String("topic", topic), zap.Error(err))
		return FallbackSVG(topic)
	}
	return svg
}

func (f *FlashcardGenerator) coreEssence(ctx context.Context, topic, explanation string) string {
	resp, err := f.gen.Generate(ctx, fmt.Sprintf(essencePrompt, topic, prefix(explanation, MaxEssenceSource)))
	if err != nil || strings.TrimSpace(resp) == "" {
		f.log.Warn("core essence extraction failed", zap.String("topic", topic), zap.Error(err))
		return "Core concept about " + topic
	}
	return strings.TrimSpace(resp)
}

// cleanSVG slices the first <svg ...</svg> element out of a model response
// and rejects it unless it parses as XML.
func cleanSVG(resp string) (string, error) {
	resp = llm.StripCodeFences(resp)

	start := strings.Index(resp, "<svg")
	end := strings.LastIndex(resp, "</svg>")
	if start == -1 || end < start {
		return "", errNoSVG
	}
	svg := resp[start : end+len("</svg>")]

	if err := wellFormed(svg); err != nil {
		return "", fmt.Errorf("malformed svg: %w", err)
	}
	return svg, nil
}

func wellFormed(doc string) error {
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// FallbackSVG is the placeholder card shown when no flashcard can be made.
func FallbackSVG(topic string) string {
	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(topic))

	return fmt.Sprintf(`<svg width="800" height="600" xmlns="http://www.w3.org/2000/svg">
  <rect width="800" height="600" fill="#1a1a1a"/>
  <text x="400" y="50" font-size="24" fill="#f0f0f0" text-anchor="middle" font-family="Arial, sans-serif">%s</text>
  <circle cx="400" cy="250" r="50" fill="none" stroke="#f0f0f0" stroke-width="2"/>
  <text x="400" y="350" font-size="16" fill="#f0f0f0" text-anchor="middle" font-family="Arial, sans-serif">Learning in progress...</text>
  <text x="400" y="450" font-size="14" fill="#f0f0f0" text-anchor="middle" font-family="Arial, sans-serif">Visual representation will be generated</text>
  <text x="400" y="480" font-size="14" fill="#f0f0f0" text-anchor="middle" font-family="Arial, sans-serif">once a generation backend is configured</text>
</svg>`, escaped.String())
}

// prefix returns at most n runes of s.
func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
