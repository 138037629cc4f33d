package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/product-api/pkg"
	"go.uber.org/zap"
)

type BaseHandler struct {
	logger *zap.Logger
}

func NewBaseHandler(logger *zap.Logger) *BaseHandler {
	return &BaseHandler{logger: logger}
}

func (b *BaseHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", b.GetHealth)
}

// RegisterAPIRoutes registers the connectivity check under the versioned group.
func (b *BaseHandler) RegisterAPIRoutes(r *gin.RouterGroup) {
	r.Any("/test", b.Test)
}

func (b *BaseHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

func (b *BaseHandler) Test(c *gin.Context) {
	c.JSON(http.StatusOK, pkg.MessageResponse{Success: true, Message: "Successful request!"})
}
