// Package middleware provides HTTP middleware for the fish farm API.
package middleware

import (
	"net/http"

	"github.com/fishfarm/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "fishfarm-backend",
		Enabled:     true,
	}
}

// TracingWithConfig returns the otelgin server middleware. Span names follow
// the matched route, e.g. "GET /api/v1/transfers/:id".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanAttributes tags the server span with request_id, operator and
// idempotency_key, and marks it failed on 4xx and 5xx responses. It must run
// after TracingWithConfig, RequestID and Operator.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpan(c, span)
		}

		c.Next()

		if !span.IsRecording() {
			return
		}
		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			span.SetAttributes(attribute.Int("http.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, "Internal Server Error")
			} else {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		}
	}
}

func enrichSpan(c *gin.Context, span trace.Span) {
	ctx := c.Request.Context()
	if id := getRequestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if op := logger.GetOperator(ctx); op != "" {
		span.SetAttributes(attribute.String("operator", op))
	}
	if key := c.GetHeader(HeaderIdempotencyKey); key != "" && len(key) <= maxIdempotencyKeyLength {
		span.SetAttributes(attribute.String("idempotency_key", key))
	}
}
