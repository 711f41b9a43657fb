package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/metrics"
	"github.com/jgirmay/concept-explainer/internal/llm/llmtest"
)

func validQuiz() Quiz {
	q := Quiz{}
	for i := 1; i <= QuestionsPerQuiz; i++ {
		q.Questions = append(q.Questions, Question{
			ID:            fmt.Sprintf("q%d", i),
			Question:      fmt.Sprintf("Question %d?", i),
			Type:          MultipleChoice,
			Options:       []string{"alpha", "beta", "gamma", "delta"},
			CorrectAnswer: "beta",
			Explanation:   "because beta",
		})
	}
	return q
}

func encode(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestParseQuiz_Valid(t *testing.T) {
	want := validQuiz()
	raw := encode(t, want)

	tests := []struct {
		name string
		resp string
	}{
		{"bare", raw},
		{"json fence", "```json\n" + raw + "\n```"},
		{"plain fence with chatter", "Here you go:\n```\n" + raw + "\n```\nGood luck!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQuiz(tt.resp)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParseQuiz_Rejects(t *testing.T) {
	mutate := func(f func(q *Quiz)) Quiz {
		q := validQuiz()
		f(&q)
		return q
	}

	tests := []struct {
		name string
		quiz any
	}{
		{"four questions", mutate(func(q *Quiz) { q.Questions = q.Questions[:4] })},
		{"six questions", mutate(func(q *Quiz) { q.Questions = append(q.Questions, q.Questions[0]) })},
		{"short answer type", mutate(func(q *Quiz) { q.Questions[2].Type = ShortAnswer })},
		{"three options", mutate(func(q *Quiz) { q.Questions[1].Options = []string{"a", "b", "beta"} })},
		{"five options", mutate(func(q *Quiz) { q.Questions[1].Options = []string{"a", "b", "c", "d", "beta"} })},
		{"answer not an option", mutate(func(q *Quiz) { q.Questions[4].CorrectAnswer = "epsilon" })},
		{"answer differs in case", mutate(func(q *Quiz) { q.Questions[0].CorrectAnswer = "Beta" })},
		{"missing id", mutate(func(q *Quiz) { q.Questions[3].ID = "" })},
		{"options as object", map[string]any{"questions": []map[string]any{{
			"id": "q1", "question": "?", "type": "multiple_choice",
			"options": map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"}, "correct_answer": "B",
		}}}},
		{"no questions key", map[string]any{"items": []string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuiz(encode(t, tt.quiz))
			assert.Error(t, err)
		})
	}

	t.Run("not json", func(t *testing.T) {
		_, err := ParseQuiz("I'm sorry, I can't do that.")
		assert.Error(t, err)
	})
	t.Run("truncated json", func(t *testing.T) {
		_, err := ParseQuiz(`{"questions": [{"id": "q1"}`)
		assert.Error(t, err)
	})
}

func TestGenerate(t *testing.T) {
	valid := validQuiz()

	tests := []struct {
		name         string
		gen          *llmtest.Fake
		wantFallback bool
	}{
		{"valid response", &llmtest.Fake{Default: "```json\n" + encode(t, valid) + "\n```"}, false},
		{"backend error", &llmtest.Fake{Err: errors.New("timeout")}, true},
		{"malformed", &llmtest.Fake{Default: "{not json"}, true},
		{"wrong shape", &llmtest.Fake{Default: `{"questions": []}`}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := metrics.New()
			g := NewGenerator(tt.gen, zap.NewNop(), m)

			got := g.Generate(context.Background(), "Photosynthesis is how plants make food.", Medium)
			if tt.wantFallback {
				assert.Equal(t, Fallback(), got)
				assert.Equal(t, float64(1), testutil.ToFloat64(m.QuizGenerations.WithLabelValues("fallback")))
				return
			}
			assert.Equal(t, valid, got)
			assert.Equal(t, float64(1), testutil.ToFloat64(m.QuizGenerations.WithLabelValues("valid")))
		})
	}
}

func TestGenerate_NoBackend(t *testing.T) {
	g := NewGenerator(nil, zap.NewNop(), nil)
	got := g.Generate(context.Background(), "anything", Hard)

	assert.Equal(t, Fallback(), got)
	assert.True(t, got.IsFallback())
	require.Len(t, got.Questions, 1)
	assert.Equal(t, "q1", got.Questions[0].ID)
	assert.Equal(t, ShortAnswer, got.Questions[0].Type)
	assert.Equal(t, "What was the main concept explained?", got.Questions[0].Question)
}

func TestGenerate_PromptTruncatesExplanation(t *testing.T) {
	gen := &llmtest.Fake{Default: encode(t, validQuiz())}
	g := NewGenerator(gen, zap.NewNop(), nil)

	explanation := strings.Repeat("x", MaxExplanationChars) + "OVERFLOW"
	g.Generate(context.Background(), explanation, Easy)

	prompt := gen.Prompts()[0]
	assert.Contains(t, prompt, strings.Repeat("x", MaxExplanationChars))
	assert.NotContains(t, prompt, "OVERFLOW")
	assert.Contains(t, prompt, "Difficulty: easy")
}

func TestGenerate_ValidQuizzesHoldShape(t *testing.T) {
	gen := &llmtest.Fake{Default: encode(t, validQuiz())}
	got := NewGenerator(gen, zap.NewNop(), nil).Generate(context.Background(), "text", Medium)

	require.Len(t, got.Questions, QuestionsPerQuiz)
	for _, q := range got.Questions {
		assert.Equal(t, MultipleChoice, q.Type)
		assert.Len(t, q.Options, OptionsPerQuestion)
		assert.Contains(t, q.Options, q.CorrectAnswer)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in     string
		want   Difficulty
		wantOK bool
	}{
		{"", Medium, true},
		{"easy", Easy, true},
		{" HARD ", Hard, true},
		{"Medium", Medium, true},
		{"extreme", Medium, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDifficulty(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestRedacted(t *testing.T) {
	q := validQuiz()
	r := q.Redacted()

	require.Len(t, r.Questions, QuestionsPerQuiz)
	for i, question := range r.Questions {
		assert.Empty(t, question.CorrectAnswer)
		assert.Empty(t, question.Explanation)
		assert.Equal(t, q.Questions[i].Options, question.Options)
	}
	assert.Equal(t, "beta", q.Questions[0].CorrectAnswer, "original untouched")
}
