package repository

import (
	"gorm.io/gorm"

	"github.com/jgirmay/concept-explainer/internal/common/database"
	"github.com/jgirmay/concept-explainer/internal/common/errors"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
)

// CreateSession stores a learning session
func CreateSession(session *models.LearningSession) error {
	result := database.DB.Create(session)
	if result.Error != nil {
		return errors.Internal("failed to create learning session", result.Error.Error())
	}
	return nil
}

// GetStudentSession retrieves a session owned by the student
func GetStudentSession(studentID, sessionID string) (*models.LearningSession, error) {
	var session models.LearningSession
	result := database.DB.
		Where("id = ? AND student_id = ?", sessionID, studentID).
		First(&session)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Internal("failed to fetch learning session", result.Error.Error())
	}
	return &session, nil
}

// GetSessionByID retrieves a session regardless of owner
func GetSessionByID(sessionID string) (*models.LearningSession, error) {
	var session models.LearningSession
	result := database.DB.Where("id = ?", sessionID).First(&session)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Internal("failed to fetch learning session", result.Error.Error())
	}
	return &session, nil
}

// ListRecentSessions returns the student's latest sessions, newest first.
// A limit of zero or less returns all of them.
func ListRecentSessions(studentID string, limit int) ([]*models.LearningSession, error) {
	var sessions []*models.LearningSession

	query := database.DB.
		Where("student_id = ?", studentID).
		Order("started_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if result := query.Find(&sessions); result.Error != nil {
		return nil, errors.Internal("failed to fetch learning sessions", result.Error.Error())
	}
	return sessions, nil
}

// ListConceptSessions returns the student's sessions for a concept, newest first
func ListConceptSessions(studentID, conceptID string) ([]*models.LearningSession, error) {
	var sessions []*models.LearningSession
	result := database.DB.
		Where("student_id = ? AND concept_id = ?", studentID, conceptID).
		Order("started_at DESC").
		Find(&sessions)
	if result.Error != nil {
		return nil, errors.Internal("failed to fetch learning sessions", result.Error.Error())
	}
	return sessions, nil
}

// CountSessions counts the student's sessions
func CountSessions(studentID string) (int64, error) {
	var count int64
	result := database.DB.Model(&models.LearningSession{}).
		Where("student_id = ?", studentID).
		Count(&count)
	if result.Error != nil {
		return 0, errors.Internal("failed to count learning sessions", result.Error.Error())
	}
	return count, nil
}
