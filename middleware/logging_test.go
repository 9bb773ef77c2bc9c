package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		status    int
		requestID string
		wantLevel zapcore.Level
		wantMsg   string
	}{
		{name: "success", status: http.StatusOK, wantLevel: zapcore.InfoLevel, wantMsg: "Request handled"},
		{name: "client error", status: http.StatusNotFound, wantLevel: zapcore.WarnLevel, wantMsg: "Request rejected"},
		{name: "server error", status: http.StatusServiceUnavailable, wantLevel: zapcore.ErrorLevel, wantMsg: "Request failed"},
		{name: "incoming request id is kept", status: http.StatusOK, requestID: "req-42", wantLevel: zapcore.InfoLevel, wantMsg: "Request handled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)

			router := gin.New()
			router.Use(RequestLogger(zap.New(core)))
			router.GET("/orders/:id", func(c *gin.Context) {
				c.Set("user_id", "auth0|123")
				c.Status(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/orders/abc", nil)
			if tt.requestID != "" {
				req.Header.Set(RequestIDHeader, tt.requestID)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, tt.wantMsg, entry.Message)

			fields := entry.ContextMap()
			assert.Equal(t, "/orders/:id", fields["path"])
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, "auth0|123", fields["user_id"])

			requestID := w.Header().Get(RequestIDHeader)
			assert.NotEmpty(t, requestID)
			assert.Equal(t, requestID, fields["request_id"])
			if tt.requestID != "" {
				assert.Equal(t, tt.requestID, requestID)
			}
		})
	}
}
