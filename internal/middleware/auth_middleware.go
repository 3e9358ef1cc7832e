package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	apperrors "github.com/zorvex/zorvex-backend/internal/errors"
	"github.com/zorvex/zorvex-backend/pkg/util"
)

// Context keys for user information
const (
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
	UserRoleKey  = "user_role"
	ClaimsKey    = "claims"
)

// SessionCookie holds the access token for browser sessions.
const SessionCookie = "session"

var errNoSession = errors.New("no session token")

// Authenticator validates an access token and checks it has not been revoked.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*util.Claims, error)
}

// ProfileReader resolves the signed-in user's profile.
type ProfileReader interface {
	GetMyProfile(ctx context.Context, userID uint) (*service.Profile, error)
}

type AuthMiddleware struct {
	auth Authenticator
}

func NewAuthMiddleware(auth Authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// sessionToken reads the token from the Authorization header, then the
// session cookie.
func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	return ""
}

// socketToken also accepts the token query parameter, since browsers cannot
// set headers on a WebSocket handshake.
func socketToken(c *gin.Context) string {
	if token := sessionToken(c); token != "" {
		return token
	}
	return c.Query("token")
}

// Session returns the claims of the request's session. Any failure,
// including a revocation lookup error, means there is no session.
func (m *AuthMiddleware) Session(c *gin.Context) (*util.Claims, error) {
	return m.session(c, sessionToken)
}

func (m *AuthMiddleware) session(c *gin.Context, tokenOf func(*gin.Context) string) (*util.Claims, error) {
	token := tokenOf(c)
	if token == "" {
		return nil, errNoSession
	}
	return m.auth.Authenticate(c.Request.Context(), token)
}

func setUser(c *gin.Context, claims *util.Claims) {
	c.Set(UserIDKey, claims.UserID)
	c.Set(UserEmailKey, claims.Email)
	c.Set(UserRoleKey, claims.Role)
	c.Set(ClaimsKey, claims)
}

// Authenticate requires a valid session.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return m.authenticate(sessionToken)
}

// AuthenticateSocket is Authenticate for WebSocket routes, where the token
// may also arrive as ?token=. Mount it on those routes only.
func (m *AuthMiddleware) AuthenticateSocket() gin.HandlerFunc {
	return m.authenticate(socketToken)
}

func (m *AuthMiddleware) authenticate(tokenOf func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		claims, err := m.session(c, tokenOf)
		if err != nil {
			log.Warn("Authentication failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			switch {
			case errors.Is(err, util.ErrExpiredToken):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Your session has expired")
			case errors.Is(err, service.ErrTokenRevoked):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "Your session has ended")
			case errors.Is(err, errNoSession):
				apperrors.Unauthorized(c, "")
			default:
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid session")
			}
			c.Abort()
			return
		}

		setUser(c, claims)
		log.Debug("User authenticated successfully", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})
		c.Next()
	}
}

// OptionalAuthenticate sets user info when a valid session is present and
// continues as a guest otherwise.
func (m *AuthMiddleware) OptionalAuthenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, err := m.Session(c); err == nil {
			setUser(c, claims)
		}
		c.Next()
	}
}

// RequireAdmin checks the role on the user's current profile rather than the
// token, so demoted or deleted staff lose access immediately. Must run after
// Authenticate.
func RequireAdmin(profiles ProfileReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		userID, ok := GetUserID(c)
		if !ok {
			apperrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		profile, err := profiles.GetMyProfile(c.Request.Context(), userID)
		if err != nil {
			log.Error("Failed to resolve profile", err, map[string]interface{}{
				"user_id": userID,
			})
			apperrors.InternalError(c, "")
			c.Abort()
			return
		}
		if !profile.IsAdmin() {
			log.Warn("Admin access denied", map[string]interface{}{
				"user_id": userID,
				"path":    c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzAdminOnly, "Staff access only")
			c.Abort()
			return
		}

		c.Set(UserRoleKey, profile.Role)
		c.Next()
	}
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok
}

// GetUserEmail extracts user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}

// GetUserRole extracts user role from context
func GetUserRole(c *gin.Context) (string, bool) {
	role, exists := c.Get(UserRoleKey)
	if !exists {
		return "", false
	}
	s, ok := role.(string)
	return s, ok
}

func GetClaims(c *gin.Context) (*util.Claims, bool) {
	claims, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	cl, ok := claims.(*util.Claims)
	return cl, ok
}
