package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erp/procurement/internal/infrastructure/cache"
	"github.com/erp/procurement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenStore struct{}

func (brokenStore) MarkProcessed(context.Context, string, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
func (brokenStore) IsProcessed(context.Context, string) (bool, error) { return false, nil }
func (brokenStore) Release(context.Context, string) error             { return nil }
func (brokenStore) Close() error                                      { return nil }

func newIdempotentRouter(t *testing.T, status *int) (*gin.Engine, *int) {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	calls := 0
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(UserIDKey, "user-1")
		c.Next()
	})
	router.Use(Idempotency(store, time.Hour, nil))
	router.POST("/approve", func(c *gin.Context) {
		calls++
		c.Status(*status)
	})
	return router, &calls
}

func postApprove(router *gin.Engine, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/approve", nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_RejectsReplay(t *testing.T) {
	status := http.StatusOK
	router, calls := newIdempotentRouter(t, &status)

	assert.Equal(t, http.StatusOK, postApprove(router, "k1").Code)

	w := postApprove(router, "k1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeDuplicateRequest)
	assert.Equal(t, 1, *calls)

	assert.Equal(t, http.StatusOK, postApprove(router, "k2").Code)
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_FailedRequestReleasesKey(t *testing.T) {
	status := http.StatusBadRequest
	router, calls := newIdempotentRouter(t, &status)

	assert.Equal(t, http.StatusBadRequest, postApprove(router, "k1").Code)

	status = http.StatusOK
	assert.Equal(t, http.StatusOK, postApprove(router, "k1").Code)
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_WithoutHeader(t *testing.T) {
	status := http.StatusOK
	router, calls := newIdempotentRouter(t, &status)

	postApprove(router, "")
	postApprove(router, "")
	assert.Equal(t, 2, *calls)
}

func TestIdempotency_KeyTooLong(t *testing.T) {
	status := http.StatusOK
	router, calls := newIdempotentRouter(t, &status)

	w := postApprove(router, strings.Repeat("k", 129))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, *calls)
}

func TestIdempotency_StoreFailureFailsOpen(t *testing.T) {
	router := gin.New()
	router.Use(Idempotency(brokenStore{}, time.Hour, nil))
	router.POST("/approve", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := postApprove(router, "k1")
	require.Equal(t, http.StatusOK, w.Code)
}
