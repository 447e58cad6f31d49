package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func() *gin.Engine {
		r := gin.New()
		r.Use(BodyLimit(100, 1000))
		echo := func(c *gin.Context) {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				c.Status(http.StatusRequestEntityTooLarge)
				return
			}
			c.String(http.StatusOK, "%d", len(body))
		}
		r.POST("/documents/:kind", echo)
		r.POST("/documents/:kind/:id/attachments", echo)
		return r
	}

	tests := []struct {
		name        string
		path        string
		contentType string
		size        int
		chunked     bool
		want        int
	}{
		{"json within limit", "/documents/request", "application/json", 80, false, http.StatusOK},
		{"json over limit", "/documents/request", "application/json", 200, false, http.StatusRequestEntityTooLarge},
		{"chunked json over limit", "/documents/request", "application/json", 200, true, http.StatusRequestEntityTooLarge},
		{"upload above json limit", "/documents/request/1/attachments", "multipart/form-data; boundary=x", 900, false, http.StatusOK},
		{"upload over upload limit", "/documents/request/1/attachments", "multipart/form-data; boundary=x", 1000 + multipartOverhead + 1, false, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(strings.Repeat("x", tt.size)))
			req.Header.Set("Content-Type", tt.contentType)
			if tt.chunked {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			newRouter().ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusRequestEntityTooLarge && !tt.chunked {
				assert.Contains(t, w.Body.String(), dto.ErrCodeRequestTooLarge)
			}
		})
	}
}
