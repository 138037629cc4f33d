package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nimeshabuddhika/product-api/pkg"
	"go.uber.org/zap"
)

const maxTraceIDLen = 128

// TraceID returns Gin middleware to handle trace IDs for observability.
// It must be the first middleware on the engine.
func TraceID(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		traceID := normalizeTraceID(c.Request.Header.Get(pkg.HeaderTraceId))
		if traceID == "" {
			traceID = uuid.New().String()
		}
		// Set in gin context for handlers
		c.Set(pkg.TraceId, traceID)

		// Bind to the request context so code without the gin context can log with it
		ctx := pkg.ContextWithTraceID(c.Request.Context(), traceID)
		ctx = pkg.ContextWithLogger(ctx, logger.With(zap.String(pkg.TraceId, traceID)))
		c.Request = c.Request.WithContext(ctx)

		// Propagate in the response header for clients/downstream tracing
		c.Writer.Header().Set(pkg.HeaderTraceId, traceID)
		c.Next()
	}
}

// normalizeTraceID accepts a caller supplied id only if it is safe to echo back.
func normalizeTraceID(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, "\r\n") {
		return ""
	}
	if len(v) > maxTraceIDLen {
		v = v[:maxTraceIDLen]
	}
	return v
}

// GetTraceID returns the trace id set by TraceID, or "" when the middleware did not run.
func GetTraceID(c *gin.Context) string {
	return c.GetString(pkg.TraceId)
}
