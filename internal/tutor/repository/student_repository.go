package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/jgirmay/concept-explainer/internal/common/database"
	"github.com/jgirmay/concept-explainer/internal/common/errors"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
)

// CreateStudent inserts a new student
func CreateStudent(student *models.Student) error {
	result := database.DB.Create(student)
	if result.Error != nil {
		return errors.Internal("failed to create student", result.Error.Error())
	}
	return nil
}

// GetStudentByID retrieves a student by id
func GetStudentByID(id string) (*models.Student, error) {
	return findStudent("id = ?", id)
}

// GetStudentByUsername retrieves a student by username
func GetStudentByUsername(username string) (*models.Student, error) {
	return findStudent("username = ?", username)
}

// StudentExists reports whether the username or email is already taken
func StudentExists(username, email string) (bool, error) {
	var count int64
	result := database.DB.Model(&models.Student{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count)
	if result.Error != nil {
		return false, errors.Internal("failed to check student", result.Error.Error())
	}
	return count > 0, nil
}

// TouchStudent records activity for a student
func TouchStudent(id string, at time.Time) error {
	result := database.DB.Model(&models.Student{}).
		Where("id = ?", id).
		Update("last_active", at)
	if result.Error != nil {
		return errors.Internal("failed to update student", result.Error.Error())
	}
	return nil
}

// EnsureStudent creates the student with the given id and username if it
// does not exist yet
func EnsureStudent(student *models.Student) (*models.Student, error) {
	existing, err := GetStudentByID(student.ID)
	if err != nil || existing != nil {
		return existing, err
	}
	if err := CreateStudent(student); err != nil {
		return nil, err
	}
	return student, nil
}

func findStudent(query string, arg interface{}) (*models.Student, error) {
	var student models.Student
	result := database.DB.Where(query, arg).First(&student)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Internal("failed to fetch student", result.Error.Error())
	}
	return &student, nil
}
