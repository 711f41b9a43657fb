package assessment

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func answersFor(n int, answer string) []Answer {
	out := make([]Answer, n)
	for i := range out {
		out[i] = Answer{QuestionID: fmt.Sprintf("q%d", i+1), Answer: answer}
	}
	return out
}

func TestEvaluate_Scenarios(t *testing.T) {
	fourRight := answersFor(5, "beta")
	fourRight[2].Answer = "gamma"

	tests := []struct {
		name        string
		answers     []Answer
		wantScore   float64
		wantCorrect int
		wantMastery bool
		wantFB      int
	}{
		{"four of five", fourRight, 80, 4, false, 5},
		{"all correct", answersFor(5, "beta"), 100, 5, true, 5},
		{"three of five submitted", answersFor(3, "beta"), 60, 3, false, 3},
		{"none submitted", nil, 0, 0, false, 0},
		{"case and whitespace ignored", answersFor(5, "  BeTa "), 100, 5, true, 5},
		{"repeated answer counted once", append(answersFor(5, "beta"), Answer{QuestionID: "q1", Answer: "beta"}), 100, 5, true, 5},
		{"unknown ids skipped", []Answer{{QuestionID: "q9", Answer: "beta"}, {QuestionID: "Q1", Answer: "beta"}}, 0, 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(validQuiz(), tt.answers)

			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantCorrect, got.CorrectAnswers)
			assert.Equal(t, QuestionsPerQuiz, got.TotalQuestions)
			assert.Equal(t, tt.wantMastery, got.MasteryAchieved)
			assert.Len(t, got.Feedback, tt.wantFB)
		})
	}
}

func TestEvaluate_Feedback(t *testing.T) {
	got := Evaluate(validQuiz(), []Answer{{QuestionID: "q2", Answer: "alpha"}, {QuestionID: "q1", Answer: "beta"}})

	require.Len(t, got.Feedback, 2)
	assert.Equal(t, Feedback{
		QuestionID:    "q2",
		Correct:       false,
		Explanation:   "because beta",
		CorrectAnswer: "beta",
		StudentAnswer: "alpha",
	}, got.Feedback[0])
	assert.True(t, got.Feedback[1].Correct)
}

func TestEvaluate_MasteryBoundary(t *testing.T) {
	quiz := Quiz{}
	for i := 1; i <= 20; i++ {
		quiz.Questions = append(quiz.Questions, Question{
			ID: fmt.Sprintf("q%d", i), Type: MultipleChoice,
			Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a",
		})
	}

	tests := []struct {
		correct     int
		wantScore   float64
		wantMastery bool
	}{
		{17, 85, true},
		{16, 80, false},
		{18, 90, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.correct), func(t *testing.T) {
			answers := make([]Answer, 0, 20)
			for i := 1; i <= 20; i++ {
				a := "b"
				if i <= tt.correct {
					a = "a"
				}
				answers = append(answers, Answer{QuestionID: fmt.Sprintf("q%d", i), Answer: a})
			}
			got := Evaluate(quiz, answers)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantMastery, got.MasteryAchieved)
		})
	}
}

func TestEvaluate_Properties(t *testing.T) {
	quiz := validQuiz()
	inputs := [][]Answer{
		nil,
		answersFor(1, "beta"),
		answersFor(2, "alpha"),
		answersFor(5, "beta"),
		append(answersFor(5, "beta"), Answer{QuestionID: "q1", Answer: "beta"}),
	}

	for i, answers := range inputs {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			first := Evaluate(quiz, answers)
			second := Evaluate(quiz, answers)
			assert.Equal(t, first, second, "idempotent")

			assert.InDelta(t, float64(first.CorrectAnswers)/float64(first.TotalQuestions)*100, first.Score, 1e-9)
			assert.Equal(t, first.Score >= MasteryThreshold, first.MasteryAchieved)
		})
	}
}

func TestEvaluate_FallbackQuiz(t *testing.T) {
	got := Evaluate(Fallback(), []Answer{{QuestionID: "q1", Answer: "please refer to the explanation"}})

	assert.Equal(t, 1, got.TotalQuestions)
	assert.Equal(t, 0, got.CorrectAnswers)
	assert.Equal(t, float64(0), got.Score)
	require.Len(t, got.Feedback, 1)

	fb := got.Feedback[0]
	assert.False(t, fb.Correct)
	assert.Equal(t, "Please refer to the explanation provided", fb.CorrectAnswer)
	require.NotNil(t, fb.Similarity)
	assert.InDelta(t, 5.0/6.0, *fb.Similarity, 1e-9)
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		student string
		sample  string
		want    float64
	}{
		{"identical", "plants make food", "plants make food", 1},
		{"partial", "plants eat", "plants make food", 1.0 / 3.0},
		{"case insensitive", "PLANTS", "plants", 1},
		{"extra words capped", "plants make food from light and water", "plants make food", 1},
		{"empty student", "", "plants", 0},
		{"empty sample", "plants", "", 0},
		{"repeated sample words count once", "food", "food food water", 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.student, tt.sample), 1e-9)
		})
	}
}
