package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"gorm.io/gorm"
)

// Profile is the merged user and customer view returned to the signed-in
// caller. Customer fields are empty for staff without a customer row.
type Profile struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	ImageURL    string `json:"image_url"`
	Role        string `json:"role"`
	Phone       string `json:"phone"`
	StoreName   string `json:"store_name"`
	Address     string `json:"address"`
	EIN         string `json:"ein"`
	AgeVerified bool   `json:"age_verified"`
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.Role == string(model.RoleAdmin)
}

// ProfileUpdate changes the caller's own profile. Nil fields are left as they are.
type ProfileUpdate struct {
	Name      string
	Phone     string
	ImageURL  *string
	StoreName *string
	Address   *string
	EIN       *string
}

type ProfileService interface {
	// GetMyProfile returns nil without error when the user does not exist.
	GetMyProfile(ctx context.Context, userID uint) (*Profile, error)
	UpdateMyProfile(ctx context.Context, userID uint, input ProfileUpdate) (*Profile, error)
	Invalidate(ctx context.Context, userID uint)
}

type profileService struct {
	userRepo     repository.UserRepository
	customerRepo repository.CustomerRepository
	cache        redis.Cmdable
	staleTime    time.Duration
}

// NewProfileService caches profiles in cache for staleTime. A nil cache
// disables caching.
func NewProfileService(
	userRepo repository.UserRepository,
	customerRepo repository.CustomerRepository,
	cache redis.Cmdable,
	staleTime time.Duration,
) ProfileService {
	return &profileService{
		userRepo:     userRepo,
		customerRepo: customerRepo,
		cache:        cache,
		staleTime:    staleTime,
	}
}

func profileKey(userID uint) string {
	return fmt.Sprintf("profile:%d", userID)
}

func (s *profileService) GetMyProfile(ctx context.Context, userID uint) (*Profile, error) {
	if cached := s.fromCache(ctx, userID); cached != nil {
		return cached, nil
	}

	user, err := s.userRepo.FindByIDWithCustomer(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Profile requested for missing user", map[string]interface{}{
				"user_id": userID,
			})
			return nil, nil
		}
		return nil, err
	}

	profile := buildProfile(user)
	s.store(ctx, profile)
	return profile, nil
}

func buildProfile(user *model.User) *Profile {
	p := &Profile{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		ImageURL: user.ImageURL,
		Role:     string(user.Role),
		Phone:    user.Phone,
	}
	if c := user.Customer; c != nil {
		p.StoreName = c.StoreName
		p.Address = c.Address
		p.EIN = c.EIN
		p.AgeVerified = c.AgeVerified
		if c.Phone != "" {
			p.Phone = c.Phone
		}
	}
	return p
}

func (s *profileService) UpdateMyProfile(ctx context.Context, userID uint, input ProfileUpdate) (*Profile, error) {
	logger.Info("Updating profile", map[string]interface{}{
		"user_id": userID,
	})

	user, err := s.userRepo.FindByIDWithCustomer(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	user.Name = input.Name
	user.Phone = input.Phone
	if input.ImageURL != nil {
		user.ImageURL = *input.ImageURL
	}
	customer := user.Customer
	user.Customer = nil
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	if input.StoreName != nil || input.Address != nil || input.EIN != nil {
		if customer == nil {
			customer = &model.Customer{UserID: &user.ID, Email: user.Email}
		}
		customer.Name = user.Name
		customer.Phone = user.Phone
		if input.StoreName != nil {
			customer.StoreName = *input.StoreName
		}
		if input.Address != nil {
			customer.Address = *input.Address
		}
		if input.EIN != nil {
			customer.EIN = *input.EIN
		}
		if customer.ID == 0 {
			err = s.customerRepo.Create(customer)
		} else {
			err = s.customerRepo.Update(customer)
		}
		if err != nil {
			return nil, err
		}
	}
	user.Customer = customer

	s.Invalidate(ctx, userID)
	profile := buildProfile(user)
	s.store(ctx, profile)

	logger.Info("Profile updated", map[string]interface{}{
		"user_id": userID,
	})
	return profile, nil
}

func (s *profileService) Invalidate(ctx context.Context, userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, profileKey(userID)).Err(); err != nil {
		logger.Warn("Failed to invalidate cached profile", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

func (s *profileService) fromCache(ctx context.Context, userID uint) *Profile {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("Profile cache read failed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		return nil
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil
	}
	return &p
}

func (s *profileService) store(ctx context.Context, p *Profile) {
	if s.cache == nil || s.staleTime <= 0 {
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, profileKey(p.ID), raw, s.staleTime).Err(); err != nil {
		logger.Warn("Profile cache write failed", map[string]interface{}{
			"user_id": p.ID,
			"error":   err.Error(),
		})
	}
}
