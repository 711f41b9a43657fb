package repository

import (
	"gorm.io/gorm"

	"github.com/jgirmay/concept-explainer/internal/common/database"
	"github.com/jgirmay/concept-explainer/internal/common/errors"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
)

// CreateQuiz stores a generated quiz
func CreateQuiz(quiz *models.Quiz) error {
	result := database.DB.Create(quiz)
	if result.Error != nil {
		return errors.Internal("failed to create quiz", result.Error.Error())
	}
	return nil
}

// GetStudentQuiz retrieves a quiz whose session belongs to the student
func GetStudentQuiz(studentID, quizID string) (*models.Quiz, error) {
	var quiz models.Quiz
	result := database.DB.
		Joins("JOIN learning_sessions ON learning_sessions.id = quizzes.session_id").
		Where("quizzes.id = ? AND learning_sessions.student_id = ?", quizID, studentID).
		Preload("Session").
		First(&quiz)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Internal("failed to fetch quiz", result.Error.Error())
	}
	return &quiz, nil
}

// SaveQuizResult records a graded submission
func SaveQuizResult(quiz *models.Quiz) error {
	result := database.DB.Model(quiz).
		Select("student_responses", "score", "mastery_achieved", "submitted").
		Updates(quiz)
	if result.Error != nil {
		return errors.Internal("failed to save quiz result", result.Error.Error())
	}
	return nil
}
