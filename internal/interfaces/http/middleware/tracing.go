// Package middleware provides HTTP middleware for the procurement API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// TracingWithConfig wraps otelgin. Spans are named "METHOD route" (e.g.
// "POST /api/v1/documents/:kind/:id/approve") and carry the request id.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector tags the server span with the caller and the
// procurement resource addressed by the route. It runs after authentication.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			span.SetAttributes(requestAttributes(c)...)
		}
		c.Next()
	}
}

func requestAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := getRequestID(c); id != "" {
		attrs = append(attrs, attribute.String("request_id", id))
	}
	if p, ok := GetPrincipal(c); ok {
		attrs = append(attrs,
			attribute.String("user_id", p.UserID),
			attribute.StringSlice("user_roles", p.Roles.Strings()),
		)
	}
	if kind := c.Param("kind"); kind != "" {
		attrs = append(attrs, attribute.String("procurement.kind", kind))
	}
	if id := c.Param("id"); id != "" {
		attrs = append(attrs, attribute.String("procurement.id", id))
	}
	return attrs
}

// getRequestID retrieves the request ID from the gin context or a truncated header
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	headerID := c.GetHeader(RequestIDHeader)
	if len(headerID) > MaxRequestIDLength {
		return headerID[:MaxRequestIDLength]
	}
	return headerID
}

// SpanErrorMarker marks the span as failed for 4xx/5xx responses. Place it after
// the tracing middleware.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}

		description := http.StatusText(status)
		if status >= http.StatusInternalServerError {
			if last := c.Errors.Last(); last != nil {
				span.RecordError(last.Err)
			}
		}
		span.SetStatus(codes.Error, description)
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}
