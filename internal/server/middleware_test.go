package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gymhub/internal/auth"
	"gymhub/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(router *gin.Engine, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func okRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware...)
	router.GET("/gyms/:gymID/members", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	router := okRouter(MetricsMiddleware())
	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/gyms/:gymID/members", "200"))

	serve(router, http.MethodGet, "/gyms/9/members", nil)
	serve(router, http.MethodGet, "/gyms/12/members", nil)

	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/gyms/:gymID/members", "200"))
	assert.Equal(t, before+2, after)
}

func TestMetricsMiddleware_Unmatched(t *testing.T) {
	router := okRouter(MetricsMiddleware())
	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404"))

	serve(router, http.MethodGet, "/nowhere", nil)

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestRequestLoggingMiddleware_RequestID(t *testing.T) {
	router := okRouter(RequestLoggingMiddleware())

	w := serve(router, http.MethodGet, "/gyms/9/members", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get(requestIDHeader), 36)

	w = serve(router, http.MethodGet, "/gyms/9/members", map[string]string{requestIDHeader: "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestRateLimitMiddleware(t *testing.T) {
	router := okRouter(RateLimitMiddleware(1, 3))

	for i := 0; i < 3; i++ {
		w := serve(router, http.MethodGet, "/gyms/9/members", nil)
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
	}

	w := serve(router, http.MethodGet, "/gyms/9/members", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate limit exceeded")
}

func TestRateLimiter_PerIP(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiter_Evict(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	rl.Allow("10.0.0.1")

	rl.evict(time.Now().Add(2 * time.Minute))

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.visitors)
}

func TestCorsMiddleware(t *testing.T) {
	router := okRouter(corsMiddleware())

	w := serve(router, http.MethodGet, "/gyms/9/members", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCorsMiddleware_OPTIONS(t *testing.T) {
	router := okRouter(corsMiddleware())

	w := serve(router, http.MethodOptions, "/gyms/9/members", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(auth.AuthMiddleware("test-secret"), auth.RequireRole(auth.RoleSystemAdmin))
	router.GET("/admin/dashboard", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin, err := auth.NewTokens("test-secret").Sign(auth.Subject{UserID: 1, Email: "admin@gymhub.io", Role: auth.RoleSystemAdmin}, auth.AccessToken)
	require.NoError(t, err)
	owner, err := auth.NewTokens("test-secret").Sign(auth.Subject{UserID: 2, Email: "owner@gym.io", Role: auth.RoleGymOwner}, auth.AccessToken)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"admin", "Bearer " + admin, http.StatusOK},
		{"gym owner", "Bearer " + owner, http.StatusForbidden},
		{"garbage token", "Bearer invalid-token", http.StatusUnauthorized},
		{"missing", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := map[string]string{}
			if tt.header != "" {
				h["Authorization"] = tt.header
			}
			w := serve(router, http.MethodGet, "/admin/dashboard", h)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
