package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/jgirmay/concept-explainer/internal/assessment"
	"github.com/jgirmay/concept-explainer/internal/retrieval"
)

// Student is a learner account
type Student struct {
	ID           string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username     string            `gorm:"uniqueIndex;not null" json:"username"`
	Email        string            `gorm:"uniqueIndex;not null" json:"email"`
	GradeLevel   *int              `json:"grade_level"`
	PasswordHash string            `gorm:"not null;default:''" json:"-"`
	Preferences  datatypes.JSONMap `json:"preferences"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActive   time.Time         `json:"last_active"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.LastActive.IsZero() {
		s.LastActive = time.Now()
	}
	return nil
}

// Concept is a topic, unique by exact name
type Concept struct {
	ID            string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name          string                      `gorm:"uniqueIndex;not null" json:"name"`
	Subject       *string                     `gorm:"index" json:"subject"`
	Description   string                      `gorm:"type:text" json:"description"`
	Prerequisites datatypes.JSONSlice[string] `json:"prerequisites"`
	RelatedTopics datatypes.JSONSlice[string] `json:"related_topics"`
	CreatedAt     time.Time                   `json:"created_at"`
}

func (c *Concept) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// LearningSession records one explanation request
type LearningSession struct {
	ID          string                                `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StudentID   string                                `gorm:"index;not null" json:"student_id"`
	Student     *Student                              `gorm:"foreignKey:StudentID" json:"-"`
	ConceptID   *string                               `gorm:"index" json:"concept_id"`
	Concept     *Concept                              `gorm:"foreignKey:ConceptID" json:"-"`
	Query       string                                `gorm:"type:text;not null" json:"query"`
	Explanation string                                `gorm:"type:text" json:"explanation"`
	Sources     datatypes.JSONSlice[retrieval.Source] `json:"sources"`
	SVGDiagrams datatypes.JSONSlice[string]           `gorm:"column:svg_diagrams" json:"svg_diagrams"`
	StartedAt   time.Time                             `gorm:"index" json:"started_at"`
	CompletedAt *time.Time                            `json:"completed_at"`
}

func (s *LearningSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	return nil
}

// QuizResponses is what a student submitted for a quiz
type QuizResponses struct {
	Answers []assessment.Answer `json:"answers"`
}

// Quiz is a generated assessment tied to one session
type Quiz struct {
	ID               string                              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SessionID        string                              `gorm:"index;not null" json:"session_id"`
	Session          *LearningSession                    `gorm:"foreignKey:SessionID" json:"-"`
	Questions        datatypes.JSONType[assessment.Quiz] `json:"questions"`
	StudentResponses datatypes.JSONType[QuizResponses]   `json:"student_responses"`
	Score            float64                             `json:"score"`
	MasteryAchieved  bool                                `json:"mastery_achieved"`
	Submitted        bool                                `gorm:"not null;default:false" json:"submitted"`
	CreatedAt        time.Time                           `json:"created_at"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// Progress tracks mastery of one concept by one student
type Progress struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	StudentID    string    `gorm:"not null;uniqueIndex:idx_progress_student_concept" json:"student_id"`
	ConceptID    string    `gorm:"not null;uniqueIndex:idx_progress_student_concept" json:"concept_id"`
	Concept      *Concept  `gorm:"foreignKey:ConceptID" json:"-"`
	MasteryLevel float64   `gorm:"not null" json:"mastery_level"`
	Attempts     int       `gorm:"not null" json:"attempts"`
	LastReviewed time.Time `json:"last_reviewed"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Progress) TableName() string {
	return "progress"
}

func (p *Progress) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// All lists every model for migration
func All() []interface{} {
	return []interface{}{
		&Student{},
		&Concept{},
		&LearningSession{},
		&Quiz{},
		&Progress{},
	}
}

// Request types

type RegisterRequest struct {
	Username   string `json:"username" binding:"required,notblank,min=3,max=50"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6,max=72"`
	GradeLevel *int   `json:"grade_level" binding:"omitempty,min=1,max=12"`
}

// LoginRequest binds from JSON or an OAuth2-style password form
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type ExplainRequest struct {
	Query string `json:"query" binding:"required,notblank,max=500"`
}

type FeynmanRequest struct {
	SessionID   string `json:"session_id" binding:"required"`
	Explanation string `json:"explanation" binding:"required,notblank"`
}

type GenerateQuizRequest struct {
	SessionID  string `json:"session_id" binding:"required"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

type AnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Answer     string `json:"answer"`
}

type SubmitQuizRequest struct {
	QuizID  string          `json:"quiz_id" binding:"required"`
	Answers []AnswerRequest `json:"answers" binding:"dive"`
}

// Response types

type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type StudentResponse struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	GradeLevel  *int           `json:"grade_level"`
	Preferences map[string]any `json:"preferences"`
	CreatedAt   time.Time      `json:"created_at"`
	LastActive  time.Time      `json:"last_active"`
}

type ExplainResponse struct {
	Explanation  string             `json:"explanation"`
	Sources      []retrieval.Source `json:"sources"`
	SVGFlashcard string             `json:"svg_flashcard"`
	SessionID    string             `json:"session_id"`
	ConceptID    string             `json:"concept_id"`
	Keywords     []string           `json:"keywords"`
}

type GenerateQuizResponse struct {
	QuizID    string                `json:"quiz_id"`
	Questions []assessment.Question `json:"questions"`
}

type SubmitQuizResponse struct {
	Score           float64               `json:"score"`
	Feedback        []assessment.Feedback `json:"feedback"`
	MasteryAchieved bool                  `json:"mastery_achieved"`
	CorrectAnswers  int                   `json:"correct_answers"`
	TotalQuestions  int                   `json:"total_questions"`
}

type QuizDetailResponse struct {
	QuizID          string                `json:"quiz_id"`
	Questions       []assessment.Question `json:"questions"`
	Score           float64               `json:"score"`
	MasteryAchieved bool                  `json:"mastery_achieved"`
	Submitted       bool                  `json:"submitted"`
	CreatedAt       time.Time             `json:"created_at"`
}

type TopicRef struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Reason  string  `json:"reason,omitempty"`
	Subject *string `json:"subject,omitempty"`
}

type RecommendationsResponse struct {
	Prerequisites []string   `json:"prerequisites"`
	NextTopics    []TopicRef `json:"next_topics"`
	Related       []TopicRef `json:"related"`
}

type ConceptProgress struct {
	ConceptID    string    `json:"concept_id"`
	Name         string    `json:"name"`
	Subject      *string   `json:"subject"`
	Mastery      float64   `json:"mastery"`
	Attempts     int       `json:"attempts"`
	LastReviewed time.Time `json:"last_reviewed"`
}

type ProgressListResponse struct {
	Concepts []ConceptProgress `json:"concepts"`
}

type RecentTopic struct {
	Query     string    `json:"query"`
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
}

type ProgressStatsResponse struct {
	TotalConceptsStudied int           `json:"total_concepts_studied"`
	ConceptsMastered     int           `json:"concepts_mastered"`
	MasteryPercentage    float64       `json:"mastery_percentage"`
	TotalSessions        int64         `json:"total_sessions"`
	RecentTopics         []RecentTopic `json:"recent_topics"`
}

type ConceptSummary struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Subject     *string `json:"subject"`
	Description string  `json:"description"`
}

type ProgressSummary struct {
	MasteryLevel float64    `json:"mastery_level"`
	Attempts     int        `json:"attempts"`
	LastReviewed *time.Time `json:"last_reviewed"`
}

type SessionSummary struct {
	ID          string     `json:"id"`
	Query       string     `json:"query"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type ConceptProgressResponse struct {
	Concept  ConceptSummary   `json:"concept"`
	Progress ProgressSummary  `json:"progress"`
	Sessions []SessionSummary `json:"sessions"`
}
