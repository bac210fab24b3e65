package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHashToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "valid token", token: "0123456789abcdef", wantErr: nil},
		{name: "too short", token: "short", wantErr: ErrTokenTooShort},
		{name: "at maximum length", token: strings.Repeat("a", 72), wantErr: nil},
		{name: "too long", token: strings.Repeat("a", 73), wantErr: ErrTokenTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashToken(tt.token, bcrypt.MinCost)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, CheckToken(tt.token, hash))
			assert.ErrorIs(t, CheckToken(tt.token+"x", hash), ErrInvalidToken)
		})
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken()
	require.NoError(t, err)
	b, err := GenerateToken()
	require.NoError(t, err)

	assert.Len(t, a, 48)
	assert.NotEqual(t, a, b)
}

func guardedRouter(t *testing.T, hash string, limiter *RateLimiter) *gin.Engine {
	t.Helper()
	guard := NewAdminGuard(hash, limiter, zap.NewNop())
	router := gin.New()
	router.POST("/blogs", guard.Handler(), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"success": true})
	})
	return router
}

func post(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/blogs", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestAdminGuard(t *testing.T) {
	const token = "admin-token-0123456789"
	hash, err := HashToken(token, bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("disabled without a hash", func(t *testing.T) {
		w := post(guardedRouter(t, "", nil), "")
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		w := post(guardedRouter(t, hash, nil), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"admin token required"}`, w.Body.String())
	})

	t.Run("wrong scheme", func(t *testing.T) {
		w := post(guardedRouter(t, hash, nil), "Basic "+token)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("wrong token", func(t *testing.T) {
		w := post(guardedRouter(t, hash, nil), "Bearer nope")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid admin token")
	})

	t.Run("valid token", func(t *testing.T) {
		w := post(guardedRouter(t, hash, nil), "bearer "+token)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("locks out after repeated failures", func(t *testing.T) {
		limiter := NewRateLimiter(RateLimitConfig{MaxAttempts: 2})
		defer limiter.Stop()
		router := guardedRouter(t, hash, limiter)

		assert.Equal(t, http.StatusUnauthorized, post(router, "Bearer wrong").Code)
		assert.Equal(t, http.StatusUnauthorized, post(router, "Bearer wrong").Code)

		w := post(router, "Bearer "+token)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
	})
}

func TestRateLimiter_Window(t *testing.T) {
	limiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     2,
		WindowDuration:  time.Minute,
		LockoutDuration: 10 * time.Minute,
	})
	defer limiter.Stop()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.False(t, limiter.RecordFailure("10.0.0.1"))
	allowed, _ := limiter.Allow("10.0.0.1")
	assert.True(t, allowed)

	assert.True(t, limiter.RecordFailure("10.0.0.1"))
	allowed, retryAfter := limiter.Allow("10.0.0.1")
	assert.False(t, allowed)
	assert.Equal(t, 10*time.Minute, retryAfter)

	other, _ := limiter.Allow("10.0.0.2")
	assert.True(t, other)

	now = now.Add(11 * time.Minute)
	allowed, _ = limiter.Allow("10.0.0.1")
	assert.True(t, allowed)

	limiter.RecordSuccess("10.0.0.1")
	limiter.cleanup()
	assert.Empty(t, limiter.attempts)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
}
