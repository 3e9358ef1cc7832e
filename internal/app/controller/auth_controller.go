package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	apperrors "github.com/zorvex/zorvex-backend/internal/errors"
	"github.com/zorvex/zorvex-backend/internal/middleware"
	"github.com/zorvex/zorvex-backend/pkg/util"
	"github.com/zorvex/zorvex-backend/pkg/validation"
)

const (
	// RefreshCookie holds the refresh token. It is only sent to /auth.
	RefreshCookie     = "refresh_token"
	refreshCookiePath = "/auth"
)

// SessionReader resolves the claims of the request's session.
type SessionReader interface {
	Session(c *gin.Context) (*util.Claims, error)
}

// CookieSettings controls the session cookies issued by the auth endpoints.
type CookieSettings struct {
	Secure     bool
	RefreshTTL time.Duration
}

type AuthController struct {
	authService  service.AuthService
	resetService service.PasswordResetService
	sessions     SessionReader
	cookies      CookieSettings
}

func NewAuthController(
	authService service.AuthService,
	resetService service.PasswordResetService,
	sessions SessionReader,
	cookies CookieSettings,
) *AuthController {
	return &AuthController{
		authService:  authService,
		resetService: resetService,
		sessions:     sessions,
		cookies:      cookies,
	}
}

type SignUpRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=100"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
	Privacy         bool   `json:"privacy" binding:"required"`
	Phone           string `json:"phone" binding:"max=30"`
	StoreName       string `json:"store_name" binding:"max=100"`
	Address         string `json:"address" binding:"max=255"`
	EIN             string `json:"ein" binding:"max=20"`
}

type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UpdatePasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,strongpassword"`
}

func (ctrl *AuthController) setSessionCookies(c *gin.Context, tokens *util.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	accessMaxAge := int(time.Until(tokens.ExpiresAt).Seconds())
	c.SetCookie(middleware.SessionCookie, tokens.AccessToken, accessMaxAge, "/", "", ctrl.cookies.Secure, true)
	c.SetCookie(RefreshCookie, tokens.RefreshToken, int(ctrl.cookies.RefreshTTL.Seconds()), refreshCookiePath, "", ctrl.cookies.Secure, true)
}

func (ctrl *AuthController) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", ctrl.cookies.Secure, true)
	c.SetCookie(RefreshCookie, "", -1, refreshCookiePath, "", ctrl.cookies.Secure, true)
}

// formErrors answers the auth forms with 401 {"errors": {...}}.
func formErrors(c *gin.Context, fields map[string]string) {
	apperrors.RespondWithFormErrors(c, http.StatusUnauthorized, fields)
}

// SignUp registers a customer account and signs it in
// POST /auth/sign-up
func (ctrl *AuthController) SignUp(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid sign-up request", map[string]interface{}{
			"error": err.Error(),
		})
		formErrors(c, validation.FieldErrors(err))
		return
	}

	user, tokens, err := ctrl.authService.SignUp(c.Request.Context(), service.SignUpInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		StoreName: req.StoreName,
		Address:   req.Address,
		EIN:       req.EIN,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			formErrors(c, map[string]string{"email": "This email is already registered"})
			return
		}
		log.Error("Failed to sign up", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.RespondWithParsedError(c, err, "create user")
		return
	}

	ctrl.setSessionCookies(c, tokens)
	log.Info("User signed up", map[string]interface{}{
		"user_id": user.ID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
	})
}

// SignIn checks the credentials and starts a session
// POST /auth/sign-in
func (ctrl *AuthController) SignIn(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		formErrors(c, validation.FieldErrors(err))
		return
	}

	user, tokens, err := ctrl.authService.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			formErrors(c, map[string]string{"password": "Invalid email or password"})
		case errors.Is(err, service.ErrAccountDisabled):
			formErrors(c, map[string]string{"password": "This account has been disabled"})
		default:
			log.Error("Failed to sign in", err, nil)
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.setSessionCookies(c, tokens)
	log.Info("User signed in", map[string]interface{}{
		"user_id": user.ID,
	})
	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

// SignOut revokes the session and sends the browser to the login page
// POST /auth/sign-out
// GET /auth/sign-out
func (ctrl *AuthController) SignOut(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if claims, err := ctrl.sessions.Session(c); err == nil {
		if err := ctrl.authService.SignOut(c.Request.Context(), claims); err != nil {
			log.Error("Failed to revoke session", err, map[string]interface{}{
				"user_id": claims.UserID,
			})
		} else {
			log.Info("User signed out", map[string]interface{}{
				"user_id": claims.UserID,
			})
		}
	}

	ctrl.clearSessionCookies(c)

	status := http.StatusFound
	if c.Request.Method == http.MethodPost {
		status = http.StatusMovedPermanently
	}
	c.Redirect(status, "/login")
}

// Refresh exchanges a refresh token for a new session
// POST /auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RefreshRequest
	_ = c.ShouldBindJSON(&req)
	token := req.RefreshToken
	if token == "" {
		token, _ = c.Cookie(RefreshCookie)
	}
	if token == "" {
		apperrors.Unauthorized(c, "")
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		log.Warn("Failed to refresh session", map[string]interface{}{
			"error": err.Error(),
		})
		ctrl.clearSessionCookies(c)
		switch {
		case errors.Is(err, util.ErrExpiredToken):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "Your session has expired")
		case errors.Is(err, service.ErrTokenRevoked):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "Your session has ended")
		default:
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "Invalid session")
		}
		return
	}

	ctrl.setSessionCookies(c, tokens)
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"expires_at": tokens.ExpiresAt,
	})
}

// ForgotPassword emails a reset link when the address is registered
// POST /auth/forgot-password
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		formErrors(c, validation.FieldErrors(err))
		return
	}

	if err := ctrl.resetService.RequestReset(c.Request.Context(), req.Email); err != nil {
		log.Error("Failed to process password reset request", err, nil)
		apperrors.InternalError(c, "We could not send the reset email. Please try again later")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "If an account exists for this email, a reset link is on its way",
	})
}

// UpdatePassword sets a new password using a reset token
// POST /auth/update-password
func (ctrl *AuthController) UpdatePassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		formErrors(c, validation.FieldErrors(err))
		return
	}

	if err := ctrl.resetService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidResetToken),
			errors.Is(err, service.ErrResetTokenExpired),
			errors.Is(err, service.ErrResetTokenUsed):
			formErrors(c, map[string]string{"token": "This reset link is invalid or has expired"})
		default:
			log.Error("Failed to reset password", err, nil)
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
