package services

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/errors"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
	"github.com/jgirmay/concept-explainer/internal/tutor/repository"
	"github.com/jgirmay/concept-explainer/pkg/auth"
)

// AuthService registers students and issues their access tokens.
type AuthService struct {
	tokens *auth.TokenManager
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(tokens *auth.TokenManager, log *zap.Logger) *AuthService {
	return &AuthService{
		tokens: tokens,
		log:    log.Named("auth_service"),
		now:    time.Now,
	}
}

// Register creates a student. Username and email must both be unused.
func (s *AuthService) Register(req models.RegisterRequest) (*models.RegisterResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	exists, err := repository.StudentExists(username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.Conflict("username or email already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Internal("failed to register student", err.Error())
	}

	student := &models.Student{
		Username:     username,
		Email:        email,
		GradeLevel:   req.GradeLevel,
		PasswordHash: hash,
	}
	if err := repository.CreateStudent(student); err != nil {
		return nil, err
	}

	s.log.Info("student registered", zap.String("student_id", student.ID), zap.String("username", username))
	return &models.RegisterResponse{
		Message: "User registered successfully",
		UserID:  student.ID,
	}, nil
}

// Login checks credentials and returns a bearer token. Unknown users and
// wrong passwords produce the same error.
func (s *AuthService) Login(req models.LoginRequest) (*models.TokenResponse, error) {
	badCredentials := errors.Unauthorized("incorrect username or password")

	student, err := repository.GetStudentByUsername(strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}
	if student == nil || student.PasswordHash == "" {
		return nil, badCredentials
	}

	ok, err := auth.VerifyPassword(req.Password, student.PasswordHash)
	if err != nil {
		s.log.Warn("stored password hash unreadable", zap.String("student_id", student.ID), zap.Error(err))
		return nil, badCredentials
	}
	if !ok {
		return nil, badCredentials
	}

	token, err := s.tokens.GenerateToken(student.ID, student.Username)
	if err != nil {
		return nil, errors.Internal("failed to issue token", err.Error())
	}
	if err := repository.TouchStudent(student.ID, s.now()); err != nil {
		return nil, err
	}

	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokens.ExpiresIn().Seconds()),
	}, nil
}

// Me returns the authenticated student's profile
func (s *AuthService) Me(studentID string) (*models.StudentResponse, error) {
	student, err := repository.GetStudentByID(studentID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		return nil, errors.Unauthorized("could not validate credentials")
	}

	prefs := map[string]any(student.Preferences)
	if prefs == nil {
		prefs = map[string]any{}
	}
	return &models.StudentResponse{
		ID:          student.ID,
		Username:    student.Username,
		Email:       student.Email,
		GradeLevel:  student.GradeLevel,
		Preferences: prefs,
		CreatedAt:   student.CreatedAt,
		LastActive:  student.LastActive,
	}, nil
}
