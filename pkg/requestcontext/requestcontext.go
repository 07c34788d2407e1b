// Package requestcontext holds per-request values set by middleware.
// Values are written once when the request enters the stack and only read afterwards.
package requestcontext

import (
	"context"
	"time"

	id "estatehub/pkg/domain"
)

type (
	requestIDKey struct{}
	clientIPKey  struct{}
	userIDKey    struct{}
	nowKey       struct{}
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request ID, or "" outside a request.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

func WithUserID(ctx context.Context, userID id.UserID) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserID returns the authenticated user ID; the zero value when unauthenticated.
func UserID(ctx context.Context) id.UserID {
	if v, ok := ctx.Value(userIDKey{}).(id.UserID); ok {
		return v
	}
	return id.UserID{}
}

// WithNow pins the request clock, so every component of one request observes the same instant.
func WithNow(ctx context.Context, now time.Time) context.Context {
	return context.WithValue(ctx, nowKey{}, now)
}

// Now returns the pinned request time, or time.Now() when none is set.
func Now(ctx context.Context) time.Time {
	if v, ok := ctx.Value(nowKey{}).(time.Time); ok {
		return v
	}
	return time.Now()
}
