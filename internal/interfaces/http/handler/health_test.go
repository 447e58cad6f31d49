package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]Pinger
		wantStatus int
		wantBody   map[string]string
	}{
		{
			name:       "all dependencies up",
			checks:     map[string]Pinger{"database": healthy, "storage": healthy},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "healthy", "database": "ok", "storage": "ok"},
		},
		{
			name:       "storage down",
			checks:     map[string]Pinger{"database": healthy, "storage": down},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   map[string]string{"status": "unhealthy", "database": "ok", "storage": "error"},
		},
		{
			name:       "nil check skipped",
			checks:     map[string]Pinger{"database": healthy, "storage": nil},
			wantStatus: http.StatusOK,
			wantBody:   map[string]string{"status": "healthy", "database": "ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(tt.checks)
			engine := gin.New()
			engine.GET("/health/ready", h.Ready)

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			for k, v := range tt.wantBody {
				assert.Equal(t, v, body[k], k)
			}
			_, hasStorage := body["storage"]
			_, wantStorage := tt.wantBody["storage"]
			assert.Equal(t, wantStorage, hasStorage)
		})
	}
}

func TestHealthHandler_Live(t *testing.T) {
	engine := gin.New()
	engine.GET("/health", NewHealthHandler(nil).Live)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
}
