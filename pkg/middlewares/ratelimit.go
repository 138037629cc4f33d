package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/product-api/pkg"
)

// Limiter decides whether one more request may proceed.
type Limiter interface {
	Allow(ctx context.Context) bool
}

// RateLimit forwards a 429 when limiter denies the request. A nil limiter allows everything.
func RateLimit(limiter Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || limiter.Allow(c.Request.Context()) {
			c.Next()
			return
		}
		forward(c, pkg.NewAppError(http.StatusTooManyRequests, pkg.MsgTooManyRequests))
	}
}
