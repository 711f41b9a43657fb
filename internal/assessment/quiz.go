// Package assessment generates quizzes from explanations and grades them.
package assessment

import "strings"

const (
	// MasteryThreshold is the score at or above which a concept counts as mastered.
	MasteryThreshold = 85.0
	// QuestionsPerQuiz is the number of questions a generated quiz must have.
	QuestionsPerQuiz = 5
	// OptionsPerQuestion is the number of choices each question must offer.
	OptionsPerQuestion = 4
	// MaxExplanationChars bounds the explanation text sent to the generator.
	MaxExplanationChars = 1000
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	ShortAnswer    QuestionType = "short_answer"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty is case-insensitive and defaults to Medium for an empty
// value. ok is false for anything else unrecognised.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return Medium, true
	case Easy, Medium, Hard:
		return d, true
	default:
		return Medium, false
	}
}

func (d Difficulty) guidance() string {
	switch d {
	case Easy:
		return "basic recall and recognition of facts stated in the text"
	case Hard:
		return "analysis and synthesis, connecting ideas and applying them to new situations"
	default:
		return "understanding and application of the main ideas"
	}
}

type Question struct {
	ID            string       `json:"id"`
	Question      string       `json:"question"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer,omitempty"`
	SampleAnswer  string       `json:"sample_answer,omitempty"`
	Explanation   string       `json:"explanation,omitempty"`
}

type Quiz struct {
	Questions []Question `json:"questions"`
}

// Fallback is the fixed quiz used whenever generation cannot produce a
// valid one.
func Fallback() Quiz {
	return Quiz{Questions: []Question{{
		ID:           "q1",
		Question:     "What was the main concept explained?",
		Type:         ShortAnswer,
		SampleAnswer: "Please refer to the explanation provided",
		Explanation:  "Summarize the key points from the explanation",
	}}}
}

// IsFallback reports whether q is the fixed fallback quiz.
func (q Quiz) IsFallback() bool {
	return len(q.Questions) == 1 && q.Questions[0].Type == ShortAnswer && q.Questions[0].ID == "q1"
}

// Redacted hides answers and explanations so an unsubmitted quiz can be
// shown to the student.
func (q Quiz) Redacted() Quiz {
	out := Quiz{Questions: make([]Question, len(q.Questions))}
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		question.CorrectAnswer = ""
		question.SampleAnswer = ""
		question.Explanation = ""
		out.Questions[i] = question
	}
	return out
}

func (q Quiz) question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}
