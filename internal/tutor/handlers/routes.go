package handlers

import "github.com/gin-gonic/gin"

// Handlers groups every tutor endpoint
type Handlers struct {
	Auth     *AuthHandler
	Explain  *ExplainHandler
	Quiz     *QuizHandler
	Progress *ProgressHandler
}

// RegisterRoutes mounts the tutor API under /api. Everything except
// register and login goes through authenticate.
func RegisterRoutes(router gin.IRouter, authenticate gin.HandlerFunc, h Handlers) {
	api := router.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.GET("/me", authenticate, h.Auth.Me)

	protected := api.Group("", authenticate)
	protected.POST("/explain", h.Explain.Explain)
	protected.POST("/feynman/student-explanation", h.Explain.StudentExplanation)
	protected.GET("/recommendations/:concept_id", h.Progress.Recommendations)

	quiz := protected.Group("/quiz")
	quiz.POST("/generate", h.Quiz.Generate)
	quiz.POST("/submit", h.Quiz.Submit)
	quiz.GET("/:id", h.Quiz.Get)

	progress := protected.Group("/progress")
	progress.GET("", h.Progress.List)
	progress.GET("/stats", h.Progress.Stats)
	progress.GET("/concept/:concept_id", h.Progress.Concept)
}
