package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	"github.com/zorvex/zorvex-backend/pkg/util"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

// fakeAuth validates real tokens and revokes by token id.
type fakeAuth struct {
	revoked map[string]bool
	err     error
}

func (a *fakeAuth) Authenticate(_ context.Context, token string) (*util.Claims, error) {
	if a.err != nil {
		return nil, a.err
	}
	claims, err := util.ValidateToken(token, testJWTSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeAccess {
		return nil, util.ErrInvalidToken
	}
	if a.revoked[claims.ID] {
		return nil, service.ErrTokenRevoked
	}
	return claims, nil
}

type fakeProfiles struct {
	profiles map[uint]*service.Profile
	err      error
	calls    int
}

func (p *fakeProfiles) GetMyProfile(_ context.Context, userID uint) (*service.Profile, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.profiles[userID], nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func generateTestToken(t *testing.T, userID uint, email, role string) string {
	tokens, err := util.GenerateTokenPair(userID, email, role, testJWTSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

func whoAmI(c *gin.Context) {
	userID, _ := GetUserID(c)
	role, _ := GetUserRole(c)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role})
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	auth := NewAuthMiddleware(&fakeAuth{revoked: map[string]bool{}})
	router := gin.New()
	router.GET("/test", auth.Authenticate(), whoAmI)

	token := generateTestToken(t, 7, "dana@example.com", "customer")

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":7,"role":"customer"}`, w.Body.String())
	})

	t.Run("session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no token", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "AUTH_UNAUTHORIZED", errorCode(t, w))
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Token "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "AUTH_TOKEN_INVALID", errorCode(t, w))
	})
}

func TestAuthMiddleware_QueryTokenOnlyOnSocketRoutes(t *testing.T) {
	auth := NewAuthMiddleware(&fakeAuth{revoked: map[string]bool{}})
	router := gin.New()
	router.GET("/page", auth.Authenticate(), whoAmI)
	router.GET("/feed", auth.AuthenticateSocket(), whoAmI)

	token := generateTestToken(t, 1, "ops@example.com", "admin")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page?token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_UNAUTHORIZED", errorCode(t, w))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":1,"role":"admin"}`, w.Body.String())

	// A header still wins over the query parameter.
	req := httptest.NewRequest(http.MethodGet, "/feed?token=garbage", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/feed", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	token := generateTestToken(t, 7, "dana@example.com", "customer")
	claims, err := util.ValidateToken(token, testJWTSecret)
	require.NoError(t, err)

	auth := NewAuthMiddleware(&fakeAuth{revoked: map[string]bool{claims.ID: true}})
	router := gin.New()
	router.GET("/test", auth.Authenticate(), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "AUTH_TOKEN_REVOKED", errorCode(t, w))
}

func TestAuthMiddleware_OptionalAuthenticate(t *testing.T) {
	auth := NewAuthMiddleware(&fakeAuth{err: errors.New("redis down")})
	router := gin.New()
	router.GET("/test", auth.OptionalAuthenticate(), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, 7, "dana@example.com", "customer"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"role":""}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	profiles := &fakeProfiles{profiles: map[uint]*service.Profile{
		1: {ID: 1, Role: "admin"},
		2: {ID: 2, Role: "customer"},
	}}
	auth := NewAuthMiddleware(&fakeAuth{revoked: map[string]bool{}})
	router := gin.New()
	router.GET("/admin-api", auth.Authenticate(), RequireAdmin(profiles), whoAmI)

	tests := []struct {
		name   string
		userID uint
		// the token role is ignored in favour of the profile
		tokenRole string
		want      int
	}{
		{"admin profile", 1, "customer", http.StatusOK},
		{"customer profile", 2, "admin", http.StatusForbidden},
		{"missing profile", 3, "admin", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin-api", nil)
			req.Header.Set("Authorization", "Bearer "+generateTestToken(t, tt.userID, "x@example.com", tt.tokenRole))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}
