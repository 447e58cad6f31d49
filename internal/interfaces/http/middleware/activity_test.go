package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/erp/procurement/internal/domain/activity"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu      sync.Mutex
	entries []*activity.Entry
	err     error
}

func (s *recordingSink) Record(_ context.Context, e *activity.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, e)
	return nil
}

func newActivityRouter(sink activity.Sink, userID string) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set(UserIDKey, userID)
		}
		c.Next()
	})
	router.Use(ActivityLog(sink, nil))
	router.POST("/documents/:kind/:id/approve", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestActivityLog_RecordsAuthenticatedCalls(t *testing.T) {
	sink := &recordingSink{}
	router := newActivityRouter(sink, "user-7")

	req := httptest.NewRequest(http.MethodPost, "/documents/invoice/123/approve", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, sink.entries, 1)
	e := sink.entries[0]
	assert.Equal(t, "user-7", e.UserID)
	assert.Equal(t, "/documents/:kind/:id/approve", e.EndpointName)
	assert.Equal(t, http.MethodPost, e.HTTPMethod)
	assert.Equal(t, http.StatusOK, e.StatusCode)
	assert.False(t, e.Timestamp.IsZero())
}

func TestActivityLog_SkipsAnonymous(t *testing.T) {
	sink := &recordingSink{}
	router := newActivityRouter(sink, "")

	req := httptest.NewRequest(http.MethodPost, "/documents/invoice/123/approve", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Empty(t, sink.entries)
}

func TestActivityLog_FailureIsSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("insert failed")}
	router := newActivityRouter(sink, "user-7")

	req := httptest.NewRequest(http.MethodPost, "/documents/invoice/123/approve", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
