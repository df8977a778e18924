// Package ctxmanage carries per-request values, most notably the trace id
// that ties a request's log lines together.
package ctxmanage

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type key string

// TraceIdKey is the context key under which the request trace id is stored.
const TraceIdKey key = "traceId"

// WithTraceId returns a copy of ctx carrying the given trace id.
func WithTraceId(ctx context.Context, traceId string) context.Context {
	return context.WithValue(ctx, TraceIdKey, traceId)
}

// GetTraceId returns the trace id stored in ctx, or generates a fresh one
// so log lines are never missing it.
func GetTraceId(ctx context.Context) string {
	if traceId, ok := ctx.Value(TraceIdKey).(string); ok && traceId != "" {
		return traceId
	}
	return uuid.NewString()
}

// GetTraceIdOfRequest fetches the trace id set by the logging middleware.
func GetTraceIdOfRequest(c *gin.Context) string {
	return GetTraceId(c.Request.Context())
}
