package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/concept-explainer/internal/common/middleware"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
	"github.com/jgirmay/concept-explainer/internal/tutor/services"
)

type QuizHandler struct {
	service *services.QuizService
}

func NewQuizHandler(service *services.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

// Generate creates a quiz for one of the student's sessions
// POST /api/quiz/generate
func (h *QuizHandler) Generate(c *gin.Context) {
	var req models.GenerateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BindingError(c, err)
		return
	}

	resp, err := h.service.Generate(c.Request.Context(), middleware.StudentID(c), req)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Submit grades a quiz
// POST /api/quiz/submit
func (h *QuizHandler) Submit(c *gin.Context) {
	var req models.SubmitQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BindingError(c, err)
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), middleware.StudentID(c), req)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Get retrieves a quiz
// GET /api/quiz/:id
func (h *QuizHandler) Get(c *gin.Context) {
	resp, err := h.service.Get(middleware.StudentID(c), c.Param("id"))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
