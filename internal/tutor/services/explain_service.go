package services

import (
	"context"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/errors"
	"github.com/jgirmay/concept-explainer/internal/common/tracing"
	"github.com/jgirmay/concept-explainer/internal/explain"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
	"github.com/jgirmay/concept-explainer/internal/tutor/repository"
)

// ConceptDescriptionChars bounds the explanation prefix stored on a new concept.
const ConceptDescriptionChars = 500

type ConceptExplainer interface {
	Explain(ctx context.Context, query string) explain.Result
}

type FlashcardMaker interface {
	Generate(ctx context.Context, topic, explanation string) string
}

// ExplanationReviewer critiques a student's own explanation of a concept.
type ExplanationReviewer interface {
	Configured() bool
	Evaluate(ctx context.Context, reference, student string) (explain.Feedback, error)
}

// ExplainService runs the explanation pipeline for a student and records
// the resulting learning session.
type ExplainService struct {
	explainer  ConceptExplainer
	flashcards FlashcardMaker
	reviewer   ExplanationReviewer
	log        *zap.Logger
}

func NewExplainService(explainer ConceptExplainer, flashcards FlashcardMaker, reviewer ExplanationReviewer, log *zap.Logger) *ExplainService {
	return &ExplainService{
		explainer:  explainer,
		flashcards: flashcards,
		reviewer:   reviewer,
		log:        log.Named("explain_service"),
	}
}

// Explain produces an explanation and one flashcard for query, files the
// query under a concept of the same name and stores a learning session.
func (s *ExplainService) Explain(ctx context.Context, studentID, query string) (*models.ExplainResponse, error) {
	query = strings.TrimSpace(query)
	ctx, span := tracing.Start(ctx, "explain.request", attribute.String("student_id", studentID))
	defer span.End()

	result := s.explainer.Explain(ctx, query)
	svg := s.flashcards.Generate(ctx, query, result.Explanation)

	concept, err := repository.UpsertConcept(&models.Concept{
		Name:        query,
		Description: lo.Substring(result.Explanation, 0, ConceptDescriptionChars),
	})
	if err != nil {
		return nil, err
	}

	session := &models.LearningSession{
		StudentID:   studentID,
		ConceptID:   &concept.ID,
		Query:       query,
		Explanation: result.Explanation,
		Sources:     result.Sources,
		SVGDiagrams: []string{svg},
	}
	if err := repository.CreateSession(session); err != nil {
		return nil, err
	}

	s.log.Info("learning session created",
		zap.String("student_id", studentID),
		zap.String("session_id", session.ID),
		zap.String("concept_id", concept.ID),
		zap.String("mode", result.Mode),
	)

	keywords := result.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return &models.ExplainResponse{
		Explanation:  result.Explanation,
		Sources:      result.Sources,
		SVGFlashcard: svg,
		SessionID:    session.ID,
		ConceptID:    concept.ID,
		Keywords:     keywords,
	}, nil
}

// ReviewStudentExplanation compares a student's explanation with the one
// stored on their session.
func (s *ExplainService) ReviewStudentExplanation(ctx context.Context, studentID string, req models.FeynmanRequest) (*explain.Feedback, error) {
	session, err := repository.GetStudentSession(studentID, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NotFound("learning session")
	}

	if !s.reviewer.Configured() {
		fb := explain.NotConfiguredFeedback()
		return &fb, nil
	}

	fb, err := s.reviewer.Evaluate(ctx, session.Explanation, req.Explanation)
	if err != nil {
		s.log.Warn("explanation review failed", zap.String("session_id", session.ID), zap.Error(err))
		return nil, errors.Internal("error processing explanation", err.Error())
	}
	return &fb, nil
}
