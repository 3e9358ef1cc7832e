package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"github.com/zorvex/zorvex-backend/pkg/redis"
	"github.com/zorvex/zorvex-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

type SignUpInput struct {
	Name      string
	Email     string
	Password  string
	Phone     string
	StoreName string
	Address   string
	EIN       string
}

type AuthService interface {
	SignUp(ctx context.Context, input SignUpInput) (*model.User, *util.TokenPair, error)
	SignIn(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error)
	SignOut(ctx context.Context, claims *util.Claims) error
	Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	// Authenticate validates an access token and checks it has not been revoked.
	Authenticate(ctx context.Context, token string) (*util.Claims, error)
}

type authService struct {
	userRepo      repository.UserRepository
	profiles      ProfileService
	jwtSecret     string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	profiles ProfileService,
	jwtSecret string,
	accessExpiry, refreshExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:      userRepo,
		profiles:      profiles,
		jwtSecret:     jwtSecret,
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
		now:           time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) SignUp(ctx context.Context, input SignUpInput) (*model.User, *util.TokenPair, error) {
	email := normalizeEmail(input.Email)
	logger.Info("Attempting user registration", map[string]interface{}{
		"email": email,
	})

	existing, err := s.userRepo.FindByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	if existing != nil {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": email,
		})
		return nil, nil, ErrEmailAlreadyExists
	}

	hash, err := util.HashPassword(input.Password)
	if err != nil {
		logger.Error("Failed to hash password", err, map[string]interface{}{
			"email": email,
		})
		return nil, nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		Phone:        input.Phone,
		Role:         model.RoleCustomer,
		Published:    true,
	}
	customer := &model.Customer{
		Name:      user.Name,
		Email:     email,
		Phone:     input.Phone,
		StoreName: input.StoreName,
		Address:   input.Address,
		EIN:       input.EIN,
	}
	if err := s.userRepo.CreateWithCustomer(user, customer); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, ErrEmailAlreadyExists
		}
		return nil, nil, err
	}
	user.Customer = customer

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"email":   email,
	})
	return user, tokens, nil
}

func (s *authService) SignIn(ctx context.Context, email, password string) (*model.User, *util.TokenPair, error) {
	email = normalizeEmail(email)
	logger.Info("Sign-in attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Sign-in failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Sign-in failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}
	if !user.Published {
		logger.Warn("Sign-in refused: account disabled", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrAccountDisabled
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.userRepo.TouchLastSignIn(user.ID, s.now()); err != nil {
		logger.Warn("Could not record sign-in time", map[string]interface{}{
			"user_id": user.ID,
		})
	}
	s.profiles.Invalidate(ctx, user.ID)

	logger.Info("User signed in", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

func (s *authService) SignOut(ctx context.Context, claims *util.Claims) error {
	if claims == nil {
		return nil
	}
	if err := redis.BlacklistToken(ctx, claims.ID, claims.TimeUntilExpiry()); err != nil {
		return err
	}
	s.profiles.Invalidate(ctx, claims.UserID)

	logger.Info("User signed out", map[string]interface{}{
		"user_id": claims.UserID,
	})
	return nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := s.validate(ctx, refreshToken, util.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.Published {
		return nil, ErrAccountDisabled
	}

	// A refresh token is single use.
	if err := redis.BlacklistToken(ctx, claims.ID, claims.TimeUntilExpiry()); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) Authenticate(ctx context.Context, token string) (*util.Claims, error) {
	return s.validate(ctx, token, util.TokenTypeAccess)
}

func (s *authService) validate(ctx context.Context, token, tokenType string) (*util.Claims, error) {
	claims, err := util.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenType {
		return nil, util.ErrInvalidToken
	}

	revoked, err := redis.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

func (s *authService) issue(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		string(user.Role),
		s.jwtSecret,
		s.accessExpiry,
		s.refreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}
