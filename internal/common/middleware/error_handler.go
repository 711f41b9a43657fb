package middleware

import (
	stderrors "errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jgirmay/concept-explainer/internal/common/errors"
)

// ErrorHandler middleware catches panics and converts them to proper error responses
func ErrorHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic recovered",
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				appErr := errors.Internal("internal server error", "")
				c.AbortWithStatusJSON(appErr.Status, appErr)
			}
		}()
		c.Next()
	}
}

// JSONErrorResponse wraps errors in consistent JSON format
func JSONErrorResponse(c *gin.Context, err error) {
	appErr := errors.From(err)
	if err != nil && appErr.Status >= 500 {
		_ = c.Error(err)
	}
	c.JSON(appErr.Status, appErr)
}

// BindingError responds to a failed ShouldBind. Validation failures are
// already AppErrors; anything else is a malformed body.
func BindingError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		JSONErrorResponse(c, appErr)
		return
	}
	JSONErrorResponse(c, errors.BadRequest(fmt.Sprintf("invalid request body: %v", err)))
}
