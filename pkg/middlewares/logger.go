package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/product-api/pkg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RequestLogger emits one entry per completed request, levelled by response status.
// Register it right after TraceID so the final status is observed.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method
		uri := c.Request.URL.RequestURI()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		log := pkg.LoggerFromContext(c.Request.Context(), logger)
		if ce := log.Check(statusLevel(status), fmt.Sprintf("%s %s returned %d in %dms", method, uri, status, duration.Milliseconds())); ce != nil {
			ce.Write(
				zap.String("method", method),
				zap.String("path", c.Request.URL.Path),
				zap.String("route", c.FullPath()),
				zap.Int("status", status),
				zap.Duration("duration", duration),
			)
		}
	}
}

func statusLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
