package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jgirmay/concept-explainer/internal/common/errors"
	"github.com/jgirmay/concept-explainer/pkg/auth"
)

const (
	StudentIDKey = "student_id"
	UsernameKey  = "username"

	// DemoStudentID is the identity every request runs as when auth is off.
	DemoStudentID = "demo-user"
	DemoUsername  = "demo"
)

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthRequired rejects requests without a valid bearer token and stores the
// student identity on the context.
func AuthRequired(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			abortUnauthorized(c, "missing authentication token")
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil || claims.StudentID == "" {
			abortUnauthorized(c, "could not validate credentials")
			return
		}

		c.Set(StudentIDKey, claims.StudentID)
		c.Set(UsernameKey, claims.Username)
		c.Next()
	}
}

// DemoIdentity authenticates every request as the demo student
func DemoIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(StudentIDKey, DemoStudentID)
		c.Set(UsernameKey, DemoUsername)
		c.Next()
	}
}

// Authenticate picks the middleware for the configured auth mode
func Authenticate(mode string, tokens TokenValidator) gin.HandlerFunc {
	if mode == "none" {
		return DemoIdentity()
	}
	return AuthRequired(tokens)
}

// StudentID returns the authenticated student, or "" outside an
// authenticated route
func StudentID(c *gin.Context) string {
	return c.GetString(StudentIDKey)
}

func extractToken(c *gin.Context) string {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

func abortUnauthorized(c *gin.Context, message string) {
	appErr := errors.Unauthorized(message)
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(appErr.Status, appErr)
}
