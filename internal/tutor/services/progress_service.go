package services

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/jgirmay/concept-explainer/internal/assessment"
	"github.com/jgirmay/concept-explainer/internal/common/errors"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
	"github.com/jgirmay/concept-explainer/internal/tutor/repository"
)

const (
	RecentTopicsLimit  = 5
	RelatedTopicsLimit = 5
	NextTopicsLimit    = 3
)

// ProgressService reports a student's mastery across concepts.
type ProgressService struct{}

func NewProgressService() *ProgressService {
	return &ProgressService{}
}

// List returns every studied concept, highest mastery first
func (s *ProgressService) List(studentID string) (*models.ProgressListResponse, error) {
	records, err := repository.ListStudentProgress(studentID)
	if err != nil {
		return nil, err
	}

	concepts := make([]models.ConceptProgress, 0, len(records))
	for _, p := range records {
		if p.Concept == nil {
			continue
		}
		concepts = append(concepts, models.ConceptProgress{
			ConceptID:    p.ConceptID,
			Name:         p.Concept.Name,
			Subject:      p.Concept.Subject,
			Mastery:      p.MasteryLevel,
			Attempts:     p.Attempts,
			LastReviewed: p.LastReviewed,
		})
	}

	return &models.ProgressListResponse{Concepts: concepts}, nil
}

// Stats summarizes mastery and recent activity
func (s *ProgressService) Stats(studentID string) (*models.ProgressStatsResponse, error) {
	records, err := repository.ListStudentProgress(studentID)
	if err != nil {
		return nil, err
	}
	mastered, err := repository.CountMastered(studentID, assessment.MasteryThreshold)
	if err != nil {
		return nil, err
	}
	totalSessions, err := repository.CountSessions(studentID)
	if err != nil {
		return nil, err
	}
	recent, err := repository.ListRecentSessions(studentID, RecentTopicsLimit)
	if err != nil {
		return nil, err
	}

	stats := &models.ProgressStatsResponse{
		TotalConceptsStudied: len(records),
		ConceptsMastered:     int(mastered),
		TotalSessions:        totalSessions,
		RecentTopics: lo.Map(recent, func(ls *models.LearningSession, _ int) models.RecentTopic {
			return models.RecentTopic{Query: ls.Query, SessionID: ls.ID, StartedAt: ls.StartedAt}
		}),
	}
	if stats.TotalConceptsStudied > 0 {
		stats.MasteryPercentage = float64(stats.ConceptsMastered) / float64(stats.TotalConceptsStudied) * 100
	}
	return stats, nil
}

// Concept returns the student's progress and sessions for one concept. A
// concept that was never studied reports zero progress.
func (s *ProgressService) Concept(studentID, conceptID string) (*models.ConceptProgressResponse, error) {
	concept, err := repository.GetConceptByID(conceptID)
	if err != nil {
		return nil, err
	}
	if concept == nil {
		return nil, errors.NotFound("concept")
	}

	progress, err := repository.GetProgress(studentID, conceptID)
	if err != nil {
		return nil, err
	}
	sessions, err := repository.ListConceptSessions(studentID, conceptID)
	if err != nil {
		return nil, err
	}

	resp := &models.ConceptProgressResponse{
		Concept: models.ConceptSummary{
			ID:          concept.ID,
			Name:        concept.Name,
			Subject:     concept.Subject,
			Description: concept.Description,
		},
		Sessions: lo.Map(sessions, func(ls *models.LearningSession, _ int) models.SessionSummary {
			return models.SessionSummary{
				ID:          ls.ID,
				Query:       ls.Query,
				StartedAt:   ls.StartedAt,
				CompletedAt: ls.CompletedAt,
			}
		}),
	}
	if progress != nil {
		reviewed := progress.LastReviewed
		resp.Progress = models.ProgressSummary{
			MasteryLevel: progress.MasteryLevel,
			Attempts:     progress.Attempts,
			LastReviewed: &reviewed,
		}
	}
	return resp, nil
}

// Recommend suggests what to study around a concept: its prerequisites and
// other concepts that share its subject.
func (s *ProgressService) Recommend(conceptID string) (*models.RecommendationsResponse, error) {
	concept, err := repository.GetConceptByID(conceptID)
	if err != nil {
		return nil, err
	}
	if concept == nil {
		return nil, errors.NotFound("concept")
	}

	related, err := repository.ListConceptsBySubject(concept.Subject, concept.ID, RelatedTopicsLimit)
	if err != nil {
		return nil, err
	}

	subject := "this subject"
	if concept.Subject != nil {
		subject = *concept.Subject
	}
	reason := fmt.Sprintf("Related to %s", subject)

	prerequisites := []string(concept.Prerequisites)
	if prerequisites == nil {
		prerequisites = []string{}
	}

	return &models.RecommendationsResponse{
		Prerequisites: prerequisites,
		NextTopics: lo.Map(lo.Slice(related, 0, NextTopicsLimit), func(c *models.Concept, _ int) models.TopicRef {
			return models.TopicRef{ID: c.ID, Name: c.Name, Reason: reason}
		}),
		Related: lo.Map(related, func(c *models.Concept, _ int) models.TopicRef {
			return models.TopicRef{ID: c.ID, Name: c.Name, Subject: c.Subject}
		}),
	}, nil
}
