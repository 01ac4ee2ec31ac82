package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/benvon/smart-worklog/internal/request"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		requestID string
		wantLevel zapcore.Level
	}{
		{name: "ok", status: http.StatusOK, wantLevel: zapcore.InfoLevel},
		{name: "client error", status: http.StatusUnprocessableEntity, requestID: "abc-123", wantLevel: zapcore.InfoLevel},
		{name: "server error", status: http.StatusServiceUnavailable, wantLevel: zapcore.WarnLevel},
		{name: "oversized request id", status: http.StatusOK, requestID: strings.Repeat("x", 100), wantLevel: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			core, logs := observer.New(zapcore.DebugLevel)

			var seenID string
			h := Logging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenID = request.RequestID(r.Context())
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("{}"))
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", nil)
			if tt.requestID != "" {
				req.Header.Set(request.RequestIDHeader, tt.requestID)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			require.NotEmpty(t, seenID)
			assert.Equal(t, seenID, rr.Header().Get(request.RequestIDHeader))
			if tt.requestID != "" && len(tt.requestID) <= maxRequestIDLength {
				assert.Equal(t, tt.requestID, seenID)
			} else {
				assert.NotEqual(t, tt.requestID, seenID)
			}

			entries := logs.FilterMessage("http_request").All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.wantLevel, entries[0].Level)
			fields := entries[0].ContextMap()
			assert.Equal(t, int64(tt.status), fields["status_code"])
			assert.Equal(t, int64(2), fields["bytes"])
			assert.Equal(t, seenID, fields["request_id"])
		})
	}
}

func TestResponseWriterKeepsFirstStatus(t *testing.T) {
	t.Parallel()

	h := Logging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
