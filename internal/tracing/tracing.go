// Package tracing carries the request trace id through a context.
package tracing

import (
	"context"

	"github.com/google/uuid"
)

type contextKey struct{}

// NewID returns a fresh trace id.
func NewID() string {
	return uuid.New().String()
}

func NewContext(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKey{}, traceID)
}

// FromContext returns the trace id stored in ctx, or "" when there is none.
func FromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(contextKey{}).(string); ok {
		return traceID
	}
	return ""
}
