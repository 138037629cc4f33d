package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/product-api/pkg"
	"github.com/nimeshabuddhika/product-api/pkg/utils"
)

// ValidateID rejects a missing or malformed :id before it reaches the handler.
// A malformed id is reported as not found.
func ValidateID(resource string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if id == "" {
			forward(c, pkg.NewBadRequest(pkg.MsgIDRequired))
			return
		}
		if !utils.IsObjectID(id) {
			forward(c, pkg.NewNotFoundWithID(resource, id))
			return
		}
		c.Next()
	}
}

// MaxJSONBodyBytes caps the size of a JSON request body.
const MaxJSONBodyBytes = 100 << 10

// JSONBody rejects syntactically invalid JSON request bodies and bodies larger
// than MaxJSONBodyBytes. The body is restored so handlers can bind it afterwards.
func JSONBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || !isJSONContent(c.GetHeader("Content-Type")) {
			c.Next()
			return
		}
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxJSONBodyBytes))
		_ = c.Request.Body.Close()
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			forward(c, pkg.NewAppError(http.StatusRequestEntityTooLarge, pkg.MsgBodyTooLarge, pkg.WithCause(err)))
			return
		}
		if err != nil {
			forward(c, pkg.NewBadRequest(pkg.MsgInvalidJSONBody, pkg.WithCause(err)))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if len(bytes.TrimSpace(body)) > 0 && !json.Valid(body) {
			forward(c, pkg.NewBadRequest(pkg.MsgInvalidJSONBody))
			return
		}
		c.Next()
	}
}

func isJSONContent(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == gin.MIMEJSON
}

// BindJSON binds the request body into dst. An empty body leaves dst untouched;
// anything that cannot be decoded is reported as an invalid JSON body.
func BindJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return pkg.NewBadRequest(pkg.MsgInvalidJSONBody, pkg.WithCause(err))
	}
	return nil
}
