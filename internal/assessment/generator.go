package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/metrics"
	"github.com/jgirmay/concept-explainer/internal/common/tracing"
	"github.com/jgirmay/concept-explainer/internal/llm"
)

const quizPrompt = `You are a teacher writing a short quiz to check a student's understanding.

Create exactly 5 multiple choice questions about the following explanation:
"""
%s
"""

Difficulty: %s (%s).

Rules:
- Every question has exactly 4 options
- correct_answer must be copied exactly from one of the options
- Each explanation says briefly why the correct answer is right
- Use ids q1 to q5

Return ONLY a JSON object in this exact shape:
{"questions": [{"id": "q1", "question": "...?", "type": "multiple_choice", "options": ["...", "...", "...", "..."], "correct_answer": "...", "explanation": "..."}]}`

const quizSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 5,
      "maxItems": 5,
      "items": {
        "type": "object",
        "required": ["id", "question", "type", "options", "correct_answer"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "question": {"type": "string", "minLength": 1},
          "type": {"type": "string", "enum": ["multiple_choice"]},
          "options": {
            "type": "array",
            "minItems": 4,
            "maxItems": 4,
            "items": {"type": "string"}
          },
          "correct_answer": {"type": "string"},
          "explanation": {"type": "string"}
        }
      }
    }
  }
}`

var (
	compiledQuizSchema = mustSchema(quizSchema)

	errNoJSON = errors.New("response contains no JSON object")
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid quiz schema: %v", err))
	}
	return schema
}

// Generator builds quizzes from explanation text.
type Generator struct {
	gen     llm.Generator
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewGenerator(gen llm.Generator, log *zap.Logger, m *metrics.Metrics) *Generator {
	return &Generator{gen: gen, log: log.Named("quiz"), metrics: m}
}

// Generate returns a validated five-question quiz, or Fallback when the
// backend is missing, fails, or returns anything that does not validate.
func (g *Generator) Generate(ctx context.Context, explanation string, difficulty Difficulty) Quiz {
	if g.gen == nil {
		g.log.Warn("generation backend not configured, using fallback quiz")
		g.metrics.ObserveQuizGeneration(true)
		return Fallback()
	}

	ctx, span := tracing.Start(ctx, "assessment.generate_quiz", attribute.String("difficulty", string(difficulty)))
	defer span.End()

	prompt := fmt.Sprintf(quizPrompt, truncateRunes(explanation, MaxExplanationChars), difficulty, difficulty.guidance())
	resp, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		g.log.Warn("quiz generation failed, using fallback quiz", zap.Error(err))
		g.metrics.ObserveQuizGeneration(true)
		return Fallback()
	}

	quiz, err := ParseQuiz(resp)
	if err != nil {
		g.log.Warn("generated quiz rejected, using fallback quiz", zap.Error(err))
		span.SetAttributes(attribute.Bool("fallback", true))
		g.metrics.ObserveQuizGeneration(true)
		return Fallback()
	}

	g.metrics.ObserveQuizGeneration(false)
	return quiz
}

// ParseQuiz decodes and validates a model response. Questions must match
// the schema and every correct answer must be one of its options.
func ParseQuiz(resp string) (Quiz, error) {
	raw, err := extractJSON(resp)
	if err != nil {
		return Quiz{}, err
	}

	result, err := compiledQuizSchema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return Quiz{}, fmt.Errorf("invalid quiz JSON: %w", err)
	}
	if !result.Valid() {
		msgs := lo.Map(result.Errors(), func(e gojsonschema.ResultError, _ int) string { return e.String() })
		return Quiz{}, fmt.Errorf("quiz failed schema validation: %s", strings.Join(msgs, "; "))
	}

	var quiz Quiz
	if err := json.Unmarshal([]byte(raw), &quiz); err != nil {
		return Quiz{}, fmt.Errorf("failed to decode quiz: %w", err)
	}

	for _, q := range quiz.Questions {
		if !lo.Contains(q.Options, q.CorrectAnswer) {
			return Quiz{}, fmt.Errorf("question %s: correct answer %q is not one of its options", q.ID, q.CorrectAnswer)
		}
	}
	return quiz, nil
}

func extractJSON(resp string) (string, error) {
	resp = llm.StripCodeFences(resp)
	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start == -1 || end < start {
		return "", errNoJSON
	}
	return resp[start : end+1], nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
