package repository

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/concept-explainer/internal/common/database"
	"github.com/jgirmay/concept-explainer/internal/common/errors"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
)

// RecordAttempt creates or updates progress for (student, concept) in a
// single statement: mastery keeps the highest score seen and attempts
// grows by one.
func RecordAttempt(studentID, conceptID string, score float64, at time.Time) (*models.Progress, error) {
	progress := &models.Progress{
		StudentID:    studentID,
		ConceptID:    conceptID,
		MasteryLevel: score,
		Attempts:     1,
		LastReviewed: at,
		UpdatedAt:    at,
	}

	result := database.DB.
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "concept_id"}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "mastery_level"}, Value: gorm.Expr(
					"CASE WHEN progress.mastery_level > excluded.mastery_level THEN progress.mastery_level ELSE excluded.mastery_level END")},
				{Column: clause.Column{Name: "attempts"}, Value: gorm.Expr("progress.attempts + 1")},
				{Column: clause.Column{Name: "last_reviewed"}, Value: gorm.Expr("excluded.last_reviewed")},
				{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
			},
		}).
		Create(progress)
	if result.Error != nil {
		return nil, errors.Internal("failed to update progress", result.Error.Error())
	}

	stored, err := GetProgress(studentID, conceptID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.Internal("failed to update progress", "progress missing after upsert")
	}
	return stored, nil
}

// GetProgress retrieves progress for one concept
func GetProgress(studentID, conceptID string) (*models.Progress, error) {
	var progress models.Progress
	result := database.DB.
		Where("student_id = ? AND concept_id = ?", studentID, conceptID).
		First(&progress)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Internal("failed to fetch progress", result.Error.Error())
	}
	return &progress, nil
}

// ListStudentProgress returns all progress rows with their concepts,
// highest mastery first
func ListStudentProgress(studentID string) ([]*models.Progress, error) {
	var progress []*models.Progress
	result := database.DB.
		Preload("Concept").
		Where("student_id = ?", studentID).
		Order("mastery_level DESC").
		Find(&progress)
	if result.Error != nil {
		return nil, errors.Internal("failed to fetch progress", result.Error.Error())
	}
	return progress, nil
}

// CountMastered counts concepts at or above the mastery threshold
func CountMastered(studentID string, threshold float64) (int64, error) {
	var count int64
	result := database.DB.Model(&models.Progress{}).
		Where("student_id = ? AND mastery_level >= ?", studentID, threshold).
		Count(&count)
	if result.Error != nil {
		return 0, errors.Internal("failed to count progress", result.Error.Error())
	}
	return count, nil
}
