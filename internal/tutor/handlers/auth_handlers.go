package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/concept-explainer/internal/common/middleware"
	"github.com/jgirmay/concept-explainer/internal/tutor/models"
	"github.com/jgirmay/concept-explainer/internal/tutor/services"
)

type AuthHandler struct {
	service *services.AuthService
}

func NewAuthHandler(service *services.AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Register creates a student account
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.BindingError(c, err)
		return
	}

	resp, err := h.service.Register(req)
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login accepts JSON or a password form and returns a bearer token
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		middleware.BindingError(c, err)
		return
	}

	resp, err := h.service.Login(req)
	if err != nil {
		c.Header("WWW-Authenticate", "Bearer")
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Me returns the authenticated student
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	resp, err := h.service.Me(middleware.StudentID(c))
	if err != nil {
		middleware.JSONErrorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
