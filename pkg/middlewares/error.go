package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/product-api/pkg"
	"go.uber.org/zap"
)

// ErrorHandler is the single place that writes error bodies for forwarded errors.
// Register it before ErrorLogger so the error is logged before it is formatted.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		status, resp := pkg.ToErrorResponse(last.Err)
		c.AbortWithStatusJSON(status, resp)
	}
}

// ErrorLogger emits one entry per forwarded error. The stack is only logged for
// unknown errors, or known ones that asked for it.
func ErrorLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, ginErr := range c.Errors {
			logError(pkg.LoggerFromContext(c.Request.Context(), logger), c, ginErr.Err)
		}
	}
}

func logError(logger *zap.Logger, c *gin.Context, err error) {
	appErr, category := pkg.Classify(err)
	status := http.StatusInternalServerError
	includeStack := category == pkg.CategoryUnknown
	fields := []zap.Field{
		zap.String("category", string(category)),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	}
	if appErr != nil {
		status = appErr.StatusCode
		includeStack = appErr.ShouldIncludeStack
		if appErr.Details != "" {
			fields = append(fields, zap.String("details", appErr.Details))
		}
	}
	fields = append(fields, zap.Int("status", status))
	if includeStack {
		if trace := pkg.StackTrace(err); trace != "" {
			fields = append(fields, zap.String("stacktrace", trace))
		}
	}

	msg := fmt.Sprintf("%s %s failed with %d", c.Request.Method, c.Request.URL.RequestURI(), status)
	if category == pkg.CategoryUnknown {
		logger.Error(msg, fields...)
		return
	}
	logger.Warn(msg, fields...)
}

// NotFound answers unmatched routes with the route and the request's trace id.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, pkg.RouteNotFoundResponse{
			Success: false,
			Message: fmt.Sprintf("Cannot %s %s", c.Request.Method, c.Request.URL.RequestURI()),
			TraceID: GetTraceID(c),
		})
	}
}
