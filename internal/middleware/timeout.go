package middleware

import (
	"net/http"
	"time"
)

// DefaultRequestTimeout leaves room for one model fallback call
const DefaultRequestTimeout = 30 * time.Second

const timeoutBody = `{"error":"Service Unavailable","message":"request timed out"}`

// Timeout cancels handlers running longer than timeout and answers with a 503
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, timeoutBody)
	}
}
