package middleware

import (
	"net/http"
	"strings"

	"github.com/benvon/smart-worklog/internal/logger"
	"github.com/benvon/smart-worklog/internal/request"
)

// OwnerIDHeader lets a trusted transport name the user a request acts for
const OwnerIDHeader = "X-Owner-ID"

// Owner copies the owner header into the request context
func Owner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if owner := strings.TrimSpace(r.Header.Get(OwnerIDHeader)); owner != "" && len(owner) <= logger.MaxOwnerIDLength {
			r = r.WithContext(request.WithOwnerID(r.Context(), owner))
		}
		next.ServeHTTP(w, r)
	})
}
