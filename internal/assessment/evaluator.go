package assessment

import "strings"

type Answer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

type Feedback struct {
	QuestionID    string   `json:"question_id"`
	Correct       bool     `json:"correct"`
	Explanation   string   `json:"explanation"`
	CorrectAnswer string   `json:"correct_answer"`
	StudentAnswer string   `json:"student_answer"`
	Similarity    *float64 `json:"similarity,omitempty"`
}

type Evaluation struct {
	Score           float64    `json:"score"`
	CorrectAnswers  int        `json:"correct_answers"`
	TotalQuestions  int        `json:"total_questions"`
	MasteryAchieved bool       `json:"mastery_achieved"`
	Feedback        []Feedback `json:"feedback"`
}

// Evaluate grades answers against quiz. Answers naming an unknown question
// are skipped, only the first answer to a question counts, and unanswered
// questions count as wrong. Short-answer
// questions are never marked correct; their feedback carries a word-overlap
// similarity against the sample answer instead.
func Evaluate(quiz Quiz, answers []Answer) Evaluation {
	eval := Evaluation{
		TotalQuestions: len(quiz.Questions),
		Feedback:       make([]Feedback, 0, len(answers)),
	}

	answered := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		q, ok := quiz.question(a.QuestionID)
		if !ok {
			continue
		}
		if _, dup := answered[q.ID]; dup {
			continue
		}
		answered[q.ID] = struct{}{}

		fb := Feedback{
			QuestionID:    q.ID,
			Explanation:   q.Explanation,
			CorrectAnswer: q.CorrectAnswer,
			StudentAnswer: a.Answer,
		}
		if q.Type == ShortAnswer {
			sim := Similarity(a.Answer, q.SampleAnswer)
			fb.CorrectAnswer = q.SampleAnswer
			fb.Similarity = &sim
		} else {
			fb.Correct = sameAnswer(a.Answer, q.CorrectAnswer)
		}

		if fb.Correct {
			eval.CorrectAnswers++
		}
		eval.Feedback = append(eval.Feedback, fb)
	}

	if eval.TotalQuestions > 0 {
		eval.Score = float64(eval.CorrectAnswers) * 100 / float64(eval.TotalQuestions)
	}
	eval.MasteryAchieved = eval.Score >= MasteryThreshold
	return eval
}

func sameAnswer(given, want string) bool {
	return strings.EqualFold(strings.TrimSpace(given), strings.TrimSpace(want))
}

// Similarity is the share of distinct sample-answer words that also appear
// in the student's answer, case-insensitively, in [0, 1].
func Similarity(student, sample string) float64 {
	sampleWords := wordSet(sample)
	if len(sampleWords) == 0 {
		return 0
	}
	studentWords := wordSet(student)

	shared := 0
	for w := range sampleWords {
		if _, ok := studentWords[w]; ok {
			shared++
		}
	}
	return min(float64(shared)/float64(len(sampleWords)), 1)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}
