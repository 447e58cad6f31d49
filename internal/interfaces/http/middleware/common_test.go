package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erp/procurement/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	const frontend = "https://procurement.example.co.id"

	newEngine := func(origins ...string) *gin.Engine {
		engine := gin.New()
		engine.Use(CORS(config.HTTPConfig{CORSAllowOrigins: origins}))
		engine.GET("/documents/request", func(c *gin.Context) { c.Status(http.StatusOK) })
		engine.POST("/documents/request/:id/approve", func(c *gin.Context) { c.Status(http.StatusOK) })
		return engine
	}

	tests := []struct {
		name        string
		origins     []string
		origin      string
		wantAllowed string
		wantCode    int
	}{
		{"configured origin", []string{frontend}, frontend, frontend, http.StatusOK},
		{"unknown origin", []string{frontend}, "https://evil.example.com", "", http.StatusForbidden},
		{"empty list rejects everyone", nil, frontend, "", http.StatusForbidden},
		{"wildcard", []string{"*"}, "https://anywhere.example.com", "*", http.StatusOK},
		{"no Origin header is not cross-origin", nil, "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/documents/request", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := serve(newEngine(tt.origins...), req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantAllowed, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}

	t.Run("approve preflight allows Idempotency-Key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/documents/request/42/approve", nil)
		req.Header.Set("Origin", frontend)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", IdempotencyKeyHeader)
		w := serve(newEngine(frontend), req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "idempotency-key")
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("wildcard drops credentials", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/documents/request/42/approve", nil)
		req.Header.Set("Origin", frontend)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := serve(newEngine("*"), req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/billing/invoice", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	tests := []struct {
		name     string
		header   string
		keep     bool
		generate bool
	}{
		{name: "propagates caller id", header: "po-2026-0042-retry", keep: true},
		{name: "generates when missing", generate: true},
		{name: "replaces oversized id", header: strings.Repeat("r", MaxRequestIDLength+1), generate: true},
		{name: "keeps id at the limit", header: strings.Repeat("r", MaxRequestIDLength), keep: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/billing/invoice", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := serve(engine, req)

			got := w.Header().Get(RequestIDHeader)
			assert.Equal(t, got, w.Body.String())
			if tt.keep {
				assert.Equal(t, tt.header, got)
			}
			if tt.generate {
				_, err := uuid.Parse(got)
				require.NoError(t, err)
			}
		})
	}

	t.Run("generated ids differ", func(t *testing.T) {
		first := serve(engine, httptest.NewRequest(http.MethodGet, "/billing/invoice", nil))
		second := serve(engine, httptest.NewRequest(http.MethodGet, "/billing/invoice", nil))
		assert.NotEqual(t, first.Header().Get(RequestIDHeader), second.Header().Get(RequestIDHeader))
	})
}

func TestSecure(t *testing.T) {
	tests := []struct {
		name     string
		maxAge   time.Duration
		wantHSTS string
	}{
		{"hsts off", 0, ""},
		{"one year", 365 * 24 * time.Hour, "max-age=31536000; includeSubDomains"},
		{"sub-second rounds to off", 500 * time.Millisecond, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			engine.Use(Secure(tt.maxAge))
			engine.GET("/journal-entries", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })

			w := serve(engine, httptest.NewRequest(http.MethodGet, "/journal-entries", nil))

			h := w.Header()
			assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
			assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
			assert.Equal(t, "no-referrer", h.Get("Referrer-Policy"))
			assert.Equal(t, "no-store", h.Get("Cache-Control"))
			assert.Contains(t, h.Get("Content-Security-Policy"), "default-src 'none'")
			assert.Equal(t, tt.wantHSTS, h.Get("Strict-Transport-Security"))
		})
	}
}
