package explain

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/tracing"
	"github.com/jgirmay/concept-explainer/internal/llm"
)

const feynmanPrompt = `You are an educational evaluation agent assessing a student's understanding.
Work step by step:

THOUGHT: Compare the student's explanation with the reference explanation.
ACTION: Identify missing concepts, misconceptions and vague areas.
OBSERVATION: Check that your feedback is specific and encouraging.

Reference explanation:
%s

Student explanation:
%s

Answer using exactly these three labelled sections:
GAPS: one missing or misunderstood concept per line, each starting with "- "
CLARIFICATIONS: a short paragraph on what the student should clarify
SIMPLIFIED: a simpler explanation that would help the student`

// Feedback is the evaluation of a learner's own explanation.
type Feedback struct {
	GapsIdentified        []string `json:"gaps_identified"`
	Clarifications        string   `json:"clarifications"`
	SimplifiedExplanation string   `json:"simplified_explanation"`
}

// NotConfiguredFeedback is returned when no backend is configured.
func NotConfiguredFeedback() Feedback {
	return Feedback{
		GapsIdentified:        []string{"Gemini API not configured"},
		Clarifications:        "Please configure the Gemini API key to use this feature.",
		SimplifiedExplanation: "Feature unavailable without API configuration",
	}
}

// FeynmanCoach compares a learner's explanation against the reference one.
type FeynmanCoach struct {
	gen llm.Generator
	log *zap.Logger
}

func NewFeynmanCoach(gen llm.Generator, log *zap.Logger) *FeynmanCoach {
	return &FeynmanCoach{gen: gen, log: log.Named("feynman")}
}

func (c *FeynmanCoach) Configured() bool { return c.gen != nil }

// Evaluate returns an error only when the backend call fails.
func (c *FeynmanCoach) Evaluate(ctx context.Context, reference, student string) (Feedback, error) {
	if c.gen == nil {
		return NotConfiguredFeedback(), nil
	}

	ctx, span := tracing.Start(ctx, "explain.feynman")
	defer span.End()

	resp, err := c.gen.Generate(ctx, fmt.Sprintf(feynmanPrompt, reference, student))
	if err != nil {
		c.log.Warn("student explanation evaluation failed", zap.Error(err))
		return Feedback{}, err
	}
	return parseFeedback(resp), nil
}

var (
	sectionLabel = regexp.MustCompile(`(?im)^\s*\**\s*(GAPS|CLARIFICATIONS|SIMPLIFIED)\s*\**\s*:\**`)
	listMarker   = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)
)

// parseFeedback splits a labelled response into its three sections. Text
// outside any section is ignored; missing sections stay empty.
func parseFeedback(resp string) Feedback {
	resp = llm.StripCodeFences(resp)
	sections := map[string]string{}

	locs := sectionLabel.FindAllStringSubmatchIndex(resp, -1)
	for i, loc := range locs {
		label := strings.ToUpper(resp[loc[2]:loc[3]])
		end := len(resp)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if _, seen := sections[label]; !seen {
			sections[label] = strings.TrimSpace(resp[loc[1]:end])
		}
	}

	return Feedback{
		GapsIdentified:        splitGaps(sections["GAPS"]),
		Clarifications:        sections["CLARIFICATIONS"],
		SimplifiedExplanation: sections["SIMPLIFIED"],
	}
}

func splitGaps(block string) []string {
	lines := strings.FieldsFunc(block, func(r rune) bool { return r == '\n' })
	if len(lines) == 1 {
		lines = strings.Split(lines[0], ";")
	}
	gaps := lo.FilterMap(lines, func(line string, _ int) (string, bool) {
		line = listMarker.ReplaceAllString(strings.TrimSpace(line), "")
		line = strings.TrimSpace(strings.Trim(line, "[]"))
		return line, line != "" && !strings.EqualFold(line, "none")
	})
	if gaps == nil {
		return []string{}
	}
	return gaps
}
