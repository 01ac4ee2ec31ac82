package request

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	ownerIDContextKey   contextKey = "owner_id"
)

// RequestIDHeader carries the request id between services
const RequestIDHeader = "X-Request-ID"

// ClientIP extracts the client IP from the request, respecting X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithRequestID returns a context carrying id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestID returns the request id from ctx, or "" if missing
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey).(string)
	return id
}

// WithOwnerID returns a context carrying the id of the user a command runs for
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDContextKey, ownerID)
}

// OwnerID returns the owner id from ctx, or "" if missing
func OwnerID(ctx context.Context) string {
	id, _ := ctx.Value(ownerIDContextKey).(string)
	return id
}
