package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestEngine wires the middleware chain in production order and records every log entry.
func newTestEngine(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	r := gin.New()
	r.Use(Recovery(logger))
	r.Use(TraceID(logger))
	r.Use(RequestLogger(logger))
	r.Use(ErrorHandler())
	r.Use(ErrorLogger(logger))
	r.Use(JSONBody())
	r.NoRoute(NotFound())
	return r, logs
}

func ok(c *gin.Context) error {
	c.JSON(http.StatusOK, gin.H{"success": true})
	return nil
}
