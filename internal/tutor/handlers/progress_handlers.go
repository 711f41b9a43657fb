package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/concept-explainer/internal/common/middleware"
	"github.com/jgirmay/concept-explainer/internal/tutor/services"
)

type ProgressHandler struct {
	service *services.ProgressService
}

func NewProgressHandler(service *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// List returns progress per concept
// GET /api/progress
func (h *ProgressHandler) List(c *gin.Context) {
	resp, err := h.service.List(middleware.StudentID(c))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Stats returns aggregate progress
// GET /api/progress/stats
func (h *ProgressHandler) Stats(c *gin.Context) {
	resp, err := h.service.Stats(middleware.StudentID(c))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Concept returns progress for one concept
// GET /api/progress/concept/:concept_id
func (h *ProgressHandler) Concept(c *gin.Context) {
	resp, err := h.service.Concept(middleware.StudentID(c), c.Param("concept_id"))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Recommendations suggests topics around a concept
// GET /api/recommendations/:concept_id
func (h *ProgressHandler) Recommendations(c *gin.Context) {
	resp, err := h.service.Recommend(c.Param("concept_id"))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
