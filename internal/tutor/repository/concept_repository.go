package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/concept-explainer/internal/common/database"
	"github.com/jgirmay/concept-explainer/internal/common/errors"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
)

// UpsertConcept inserts the concept unless one with the same name exists,
// then returns the stored row. Existing concepts are left untouched.
func UpsertConcept(concept *models.Concept) (*models.Concept, error) {
	result := database.DB.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoNothing: true,
		}).
		Create(concept)
	if result.Error != nil {
		return nil, errors.Internal("failed to save concept", result.Error.Error())
	}

	stored, err := GetConceptByName(concept.Name)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.Internal("failed to save concept", "concept missing after upsert")
	}
	return stored, nil
}

// GetConceptByID retrieves a concept by id
func GetConceptByID(id string) (*models.Concept, error) {
	return findConcept("id = ?", id)
}

// GetConceptByName retrieves a concept by exact name
func GetConceptByName(name string) (*models.Concept, error) {
	return findConcept("name = ?", name)
}

// ListConceptsBySubject returns up to limit other concepts sharing the
// subject. A nil subject matches concepts without one.
func ListConceptsBySubject(subject *string, excludeID string, limit int) ([]*models.Concept, error) {
	var concepts []*models.Concept

	query := database.DB.Where("id <> ?", excludeID)
	if subject == nil {
		query = query.Where("subject IS NULL")
	} else {
		query = query.Where("subject = ?", *subject)
	}

	result := query.Order("created_at ASC").Limit(limit).Find(&concepts)
	if result.Error != nil {
		return nil, errors.Internal("failed to fetch related concepts", result.Error.Error())
	}
	return concepts, nil
}

func findConcept(query string, arg interface{}) (*models.Concept, error) {
	var concept models.Concept
	result := database.DB.Where(query, arg).First(&concept)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Internal("failed to fetch concept", result.Error.Error())
	}
	return &concept, nil
}
