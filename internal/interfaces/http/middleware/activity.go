package middleware

import (
	"context"
	"time"

	"github.com/erp/procurement/internal/domain/activity"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const activityTimeout = 3 * time.Second

// ActivityLog appends one activity record per authenticated request.
// Failures are logged and never change the response.
func ActivityLog(sink activity.Sink, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		userID := GetUserID(c)
		if userID == "" {
			return
		}
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		entry := activity.NewEntry(userID, endpoint, c.Request.Method, c.Writer.Status())

		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), activityTimeout)
		defer cancel()
		if err := sink.Record(ctx, entry); err != nil {
			log.Warn("Failed to record activity",
				zap.String("user_id", userID),
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
		}
	}
}
