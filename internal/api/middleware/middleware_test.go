package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(hash string) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/admin", AdminKeyMiddleware(hash, zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	return r
}

func TestAdminKeyMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	r := newRouter(string(hash))

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"valid key", "s3cret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.key != "" {
				req.Header.Set(AdminKeyHeader, tt.key)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAdminKeyMiddleware_NoHashConfigured(t *testing.T) {
	r := newRouter("")
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(AdminKeyHeader, "anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("k"), bcrypt.MinCost)
	require.NoError(t, err)
	r := newRouter(string(hash))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(AdminKeyHeader, "k")
	req.Header.Set(RequestIDHeader, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-1", w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(AdminKeyHeader, "k")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Len(t, w.Body.String(), 36)
}
