package middleware

import (
	"fmt"
	"io"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/product-api/pkg"
	"go.uber.org/zap"
)

// HandlerFunc is a gin handler that reports failure by returning an error
// instead of writing an error body itself.
type HandlerFunc func(c *gin.Context) error

// Handle adapts fn to gin. A returned error or a panic is forwarded to the
// error channel (c.Errors) and the chain is aborted; on success fn has already
// written the response.
func Handle(fn HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := invoke(fn, c); err != nil {
			forward(c, err)
		}
	}
}

func invoke(fn HandlerFunc, c *gin.Context) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			//nolint:errorlint // must compare directly
			if rvr == http.ErrAbortHandler {
				panic(rvr)
			}
			err = recoveredError(rvr)
		}
	}()
	return fn(c)
}

// Recovery catches panics raised outside Handle, such as in middleware, and
// answers them through the same logging and error body as forwarded errors.
// It must be the outermost middleware.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rvr any) {
		err := recoveredError(rvr)
		_ = c.Error(err)
		logError(pkg.LoggerFromContext(c.Request.Context(), logger), c, err)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		status, resp := pkg.ToErrorResponse(err)
		c.AbortWithStatusJSON(status, resp)
	})
}

func recoveredError(rvr any) error {
	return pkg.WithStackString(fmt.Errorf("panic: %v", rvr), string(debug.Stack()))
}

// forward pushes err onto the error channel. Unclassified errors get a stack so the
// error logger can report where they surfaced.
func forward(c *gin.Context, err error) {
	if _, category := pkg.Classify(err); category == pkg.CategoryUnknown {
		err = pkg.WithStack(err)
	}
	_ = c.Error(err)
	c.Abort()
}
