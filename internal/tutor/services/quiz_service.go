package services

import (
	"context"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/jgirmay/concept-explainer/internal/assessment"
	"github.com/jgirmay/concept-explainer/internal/common/errors"
	"github.com/jgirmay/concept-explainer/internal/common/metrics"
	"github.com/jgirmay/concept-explainer/internal/common/tracing"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
	"github.com/jgirmay/concept-explainer/internal/tutor/repository"
)

type QuizMaker interface {
	Generate(ctx context.Context, explanation string, difficulty assessment.Difficulty) assessment.Quiz
}

// QuizService generates quizzes for a student's sessions and grades them.
type QuizService struct {
	maker   QuizMaker
	log     *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewQuizService(maker QuizMaker, log *zap.Logger, m *metrics.Metrics) *QuizService {
	return &QuizService{
		maker:   maker,
		log:     log.Named("quiz_service"),
		metrics: m,
		now:     time.Now,
	}
}

// Generate builds a quiz from the session's explanation. Answers stay
// hidden until the quiz is submitted.
func (s *QuizService) Generate(ctx context.Context, studentID string, req models.GenerateQuizRequest) (*models.GenerateQuizResponse, error) {
	session, err := repository.GetStudentSession(studentID, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NotFound("learning session")
	}

	difficulty, _ := assessment.ParseDifficulty(req.Difficulty)
	ctx, span := tracing.Start(ctx, "quiz.generate", attribute.String("difficulty", string(difficulty)))
	defer span.End()

	generated := s.maker.Generate(ctx, session.Explanation, difficulty)

	quiz := &models.Quiz{
		SessionID: session.ID,
		Questions: datatypes.NewJSONType(generated),
	}
	if err := repository.CreateQuiz(quiz); err != nil {
		return nil, err
	}

	return &models.GenerateQuizResponse{
		QuizID:    quiz.ID,
		Questions: generated.Redacted().Questions,
	}, nil
}

// Submit grades answers, stores them on the quiz and folds the score into
// the student's progress for the session's concept.
func (s *QuizService) Submit(ctx context.Context, studentID string, req models.SubmitQuizRequest) (*models.SubmitQuizResponse, error) {
	quiz, err := repository.GetStudentQuiz(studentID, req.QuizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, errors.NotFound("quiz")
	}

	_, span := tracing.Start(ctx, "quiz.submit", attribute.String("quiz_id", quiz.ID))
	defer span.End()

	answers := lo.Map(req.Answers, func(a models.AnswerRequest, _ int) assessment.Answer {
		return assessment.Answer{QuestionID: a.QuestionID, Answer: a.Answer}
	})
	eval := assessment.Evaluate(quiz.Questions.Data(), answers)

	quiz.StudentResponses = datatypes.NewJSONType(models.QuizResponses{Answers: answers})
	quiz.Score = eval.Score
	quiz.MasteryAchieved = eval.MasteryAchieved
	quiz.Submitted = true
	if err := repository.SaveQuizResult(quiz); err != nil {
		return nil, err
	}

	if quiz.Session != nil && quiz.Session.ConceptID != nil {
		if _, err := repository.RecordAttempt(studentID, *quiz.Session.ConceptID, eval.Score, s.now()); err != nil {
			return nil, err
		}
	}

	s.metrics.ObserveEvaluation(eval.MasteryAchieved)
	s.log.Info("quiz submitted",
		zap.String("quiz_id", quiz.ID),
		zap.Float64("score", eval.Score),
		zap.Bool("mastery", eval.MasteryAchieved),
	)

	return &models.SubmitQuizResponse{
		Score:           eval.Score,
		Feedback:        eval.Feedback,
		MasteryAchieved: eval.MasteryAchieved,
		CorrectAnswers:  eval.CorrectAnswers,
		TotalQuestions:  eval.TotalQuestions,
	}, nil
}

// Get returns a quiz owned by the student
func (s *QuizService) Get(studentID, quizID string) (*models.QuizDetailResponse, error) {
	quiz, err := repository.GetStudentQuiz(studentID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, errors.NotFound("quiz")
	}

	questions := quiz.Questions.Data()
	if !quiz.Submitted {
		questions = questions.Redacted()
	}

	return &models.QuizDetailResponse{
		QuizID:          quiz.ID,
		Questions:       questions.Questions,
		Score:           quiz.Score,
		MasteryAchieved: quiz.MasteryAchieved,
		Submitted:       quiz.Submitted,
		CreatedAt:       quiz.CreatedAt,
	}, nil
}
