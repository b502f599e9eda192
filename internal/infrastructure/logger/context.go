package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey         contextKey = "logger"
	requestIDKey      contextKey = "request_id"
	operatorKey       contextKey = "operator"
	idempotencyKeyKey contextKey = "idempotency_key"
)

// WithContext returns a new context with the logger attached
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores the request id and attaches a logger carrying it
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	enriched := logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, enriched), enriched
}

// WithOperator stores who is acting (from the X-Operator header or the CLI)
func WithOperator(ctx context.Context, operator string) context.Context {
	return context.WithValue(ctx, operatorKey, operator)
}

// WithIdempotencyKey stores the Idempotency-Key of the current mutation
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyKey, key)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// GetOperator retrieves the operator from context
func GetOperator(ctx context.Context) string {
	v, _ := ctx.Value(operatorKey).(string)
	return v
}

// GetIdempotencyKey retrieves the idempotency key from context
func GetIdempotencyKey(ctx context.Context) string {
	v, _ := ctx.Value(idempotencyKeyKey).(string)
	return v
}

// GetTraceID returns the trace id of the active span, or ""
func GetTraceID(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

// L returns the logger attached to ctx enriched with the trace, operator and
// idempotency fields found in ctx. Attached loggers already carry request_id.
//
//	logger.L(ctx).Info("transfer completed", zap.String("transfer_id", id))
func L(ctx context.Context) *zap.Logger {
	return enrich(ctx, FromContext(ctx), false)
}

// Enrich adds every context field of ctx, request_id included, to a logger
// that did not come from ctx.
func Enrich(ctx context.Context, logger *zap.Logger) *zap.Logger {
	return enrich(ctx, logger, true)
}

func enrich(ctx context.Context, logger *zap.Logger, withRequestID bool) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	fields := make([]zap.Field, 0, 5)
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if id := GetRequestID(ctx); withRequestID && id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if op := GetOperator(ctx); op != "" {
		fields = append(fields, zap.String("operator", op))
	}
	if key := GetIdempotencyKey(ctx); key != "" {
		fields = append(fields, zap.String("idempotency_key", key))
	}
	if len(fields) == 0 {
		return logger
	}
	return logger.With(fields...)
}
