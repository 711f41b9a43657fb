package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/concept-explainer/internal/common/middleware"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
	"github.com/jgirmay/concept-explainer/internal/tutor/services"
)

type ExplainHandler struct {
	service *services.ExplainService
}

func NewExplainHandler(service *services.ExplainService) *ExplainHandler {
	return &ExplainHandler{service: service}
}

// Explain runs the explanation pipeline for a query
// POST /api/explain
func (h *ExplainHandler) Explain(c *gin.Context) {
	var req models.ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BindingError(c, err)
		return
	}

	resp, err := h.service.Explain(c.Request.Context(), middleware.StudentID(c), req.Query)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// StudentExplanation reviews the student's own explanation of a session
// POST /api/feynman/student-explanation
func (h *ExplainHandler) StudentExplanation(c *gin.Context) {
	var req models.FeynmanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BindingError(c, err)
		return
	}

	resp, err := h.service.ReviewStudentExplanation(c.Request.Context(), middleware.StudentID(c), req)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
