package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/benvon/smart-worklog/internal/request"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestMaxRequestSize(t *testing.T) {
	t.Parallel()

	h := MaxRequestSize(8, zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		if _, err := r.Body.Read(buf); err != nil && err.Error() == "http: request body too large" {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}")))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 32))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		want        int
	}{
		{name: "json", method: http.MethodPost, body: "{}", contentType: "application/json", want: http.StatusOK},
		{name: "json with charset", method: http.MethodPost, body: "{}", contentType: "application/json; charset=utf-8", want: http.StatusOK},
		{name: "missing", method: http.MethodPost, body: "{}", want: http.StatusBadRequest},
		{name: "form", method: http.MethodPost, body: "a=b", contentType: "application/x-www-form-urlencoded", want: http.StatusUnsupportedMediaType},
		{name: "get ignored", method: http.MethodGet, want: http.StatusOK},
		{name: "empty post ignored", method: http.MethodPost, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(tt.method, "/api/v1/parse", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			rr := httptest.NewRecorder()
			ContentType(zap.NewNop())(okHandler).ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestOwner(t *testing.T) {
	t.Parallel()

	var got string
	h := Owner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = request.OwnerID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(OwnerIDHeader, " chat-42 ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "chat-42", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(OwnerIDHeader, strings.Repeat("x", 200))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, got)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	h := CORS([]string{"https://app.example"}, false)(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/parse", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "https://app.example", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	SecurityHeaders(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	h := Timeout(20 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "request timed out")
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	stores := map[string]redis.UniversalClient{
		"memory": nil,
		"redis":  client,
	}

	for name, c := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			store, err := NewRateLimitStore(c)
			require.NoError(t, err)

			mw, err := RateLimit(store, "2-M", zap.NewNop())
			require.NoError(t, err)
			h := mw(okHandler)

			send := func(ip string) *httptest.ResponseRecorder {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/parse", nil)
				req.Header.Set("X-Forwarded-For", ip)
				rr := httptest.NewRecorder()
				h.ServeHTTP(rr, req)
				return rr
			}

			ip := "203.0.113." + map[string]string{"memory": "1", "redis": "2"}[name]
			assert.Equal(t, http.StatusOK, send(ip).Code)
			assert.Equal(t, http.StatusOK, send(ip).Code)

			limited := send(ip)
			assert.Equal(t, http.StatusTooManyRequests, limited.Code)
			assert.Equal(t, "2", limited.Header().Get("X-RateLimit-Limit"))

			assert.Equal(t, http.StatusOK, send("198.51.100.7").Code)
		})
	}
}

func TestRateLimitRejectsBadRate(t *testing.T) {
	t.Parallel()

	store, err := NewRateLimitStore(nil)
	require.NoError(t, err)
	_, err = RateLimit(store, "lots", zap.NewNop())
	assert.Error(t, err)
}
