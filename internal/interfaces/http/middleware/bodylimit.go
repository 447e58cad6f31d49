package middleware

import (
	"mime"
	"net/http"

	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// multipartOverhead covers form boundaries and part headers around an upload
const multipartOverhead = 64 << 10

// BodyLimit caps request bodies at maxBytes. Multipart uploads are capped at
// maxUpload plus form overhead instead, so attachment routes can accept files
// larger than a JSON payload.
func BodyLimit(maxBytes, maxUpload int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if isMultipart(c.Request) && maxUpload > 0 {
			limit = maxUpload + multipartOverhead
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size",
				c.GetString(RequestIDKey),
			))
			return
		}

		// chunked bodies have no Content-Length; the reader enforces the cap
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}
