package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"skillswipe/internal/auth"
	"skillswipe/internal/database"
	"skillswipe/internal/tasks"
)

type fakeValidator map[string]*auth.TokenClaims

func (f fakeValidator) ValidateToken(token string) (*auth.TokenClaims, error) {
	if claims, ok := f[token]; ok {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id":     c.GetString(ContextUserID),
			"must_change": c.GetBool(ContextMustChangePassword),
		})
	})...)
	return r
}

func get(r *gin.Engine, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	validator := fakeValidator{
		"access":  {UserID: "u1", Role: database.RoleDeveloper, TokenType: auth.TokenTypeAccess},
		"refresh": {UserID: "u1", TokenType: auth.TokenTypeRefresh},
		"gated":   {UserID: "u2", TokenType: auth.TokenTypeAccess, MustChangePassword: true},
	}
	r := newEngine(AuthMiddleware(validator))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic access", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"refresh token", "Bearer refresh", http.StatusUnauthorized},
		{"access token", "Bearer access", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, map[string]string{"Authorization": tt.header})
			assert.Equal(t, tt.status, w.Code)
		})
	}

	gated := newEngine(AuthMiddleware(validator), RequirePasswordChangeCompletedMiddleware())
	assert.Equal(t, http.StatusForbidden, get(gated, map[string]string{"Authorization": "Bearer gated"}).Code)
	assert.Equal(t, http.StatusOK, get(gated, map[string]string{"Authorization": "Bearer access"}).Code)
}

func TestInternalSecretMiddleware(t *testing.T) {
	r := newEngine(InternalSecretMiddleware("s3cret"))
	assert.Equal(t, http.StatusUnauthorized, get(r, nil).Code)
	denied := get(r, map[string]string{InternalSecretHeader: "guess"})
	assert.Equal(t, http.StatusUnauthorized, denied.Code)
	assert.JSONEq(t, `{"error":"unauthorized","code":4003}`, denied.Body.String())
	assert.Equal(t, http.StatusUnauthorized, get(r, map[string]string{InternalSecretHeader: "s3cret-and-more"}).Code)
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-Internal-Secret": "s3cret"}).Code)

	unconfigured := newEngine(InternalSecretMiddleware(""))
	assert.Equal(t, http.StatusInternalServerError, get(unconfigured, map[string]string{"X-Internal-Secret": ""}).Code)
}

func TestUserRateLimiter(t *testing.T) {
	setUser := func(id string) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set(ContextUserID, id) }
	}
	limiter := UserRateLimiter(2, time.Minute)
	alice := newEngine(setUser("alice"), limiter)
	bob := newEngine(setUser("bob"), limiter)

	assert.Equal(t, http.StatusOK, get(alice, nil).Code)
	assert.Equal(t, http.StatusOK, get(alice, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(alice, nil).Code)
	assert.Equal(t, http.StatusOK, get(bob, nil).Code, "limits are tracked per user")
}

func TestCorrelationIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationIDMiddleware())
	var fromCtx string
	r.GET("/", func(c *gin.Context) {
		fromCtx = tasks.CorrelationIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := get(r, map[string]string{"X-Correlation-ID": "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get("X-Correlation-ID"))
	assert.Equal(t, "abc-123", fromCtx)

	w = get(r, nil)
	assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
	assert.Equal(t, w.Header().Get("X-Correlation-ID"), fromCtx)
}
