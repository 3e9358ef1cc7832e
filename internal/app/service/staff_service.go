package service

import (
	"context"
	"errors"
	"strings"

	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/internal/authz"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"github.com/zorvex/zorvex-backend/pkg/pagination"
	"gorm.io/gorm"
)

var (
	ErrStaffNotFound = errors.New("staff member not found")
	// ErrSelfAction is returned when staff try to delete or deactivate themselves.
	ErrSelfAction = errors.New("cannot perform this action on your own account")
)

type StaffInput struct {
	Name     string
	Phone    string
	ImageURL string
}

type StaffService interface {
	List(page, limit int, search string) (pagination.Page[model.User], error)
	GetByID(id uint) (*model.User, error)
	Update(ctx context.Context, id uint, input StaffInput) (*model.User, error)
	SetPublished(ctx context.Context, actorID, id uint, published bool) error
	Delete(ctx context.Context, actorID, id uint) error
}

type staffService struct {
	userRepo repository.UserRepository
	profiles ProfileService
}

func NewStaffService(userRepo repository.UserRepository, profiles ProfileService) StaffService {
	return &staffService{
		userRepo: userRepo,
		profiles: profiles,
	}
}

func (s *staffService) List(page, limit int, search string) (pagination.Page[model.User], error) {
	page, limit = pagination.Normalize(page, limit)
	staff, total, err := s.userRepo.FindStaff(repository.StaffFilter{
		Search: search,
		Limit:  limit,
		Offset: pagination.Offset(page, limit),
	})
	if err != nil {
		return pagination.Page[model.User]{}, err
	}
	return pagination.NewPage(staff, page, limit, total), nil
}

func (s *staffService) GetByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, ErrStaffNotFound
	}
	return user, nil
}

func (s *staffService) Update(ctx context.Context, id uint, input StaffInput) (*model.User, error) {
	user, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(input.Name)
	user.Phone = input.Phone
	user.ImageURL = input.ImageURL
	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	s.profiles.Invalidate(ctx, id)

	logger.Info("Staff member updated", map[string]interface{}{
		"user_id": id,
	})
	return user, nil
}

func (s *staffService) SetPublished(ctx context.Context, actorID, id uint, published bool) error {
	if !published && authz.IsSelf(actorID, id) {
		return ErrSelfAction
	}
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.userRepo.SetPublished(id, published); err != nil {
		return err
	}
	s.profiles.Invalidate(ctx, id)

	logger.Info("Staff member visibility changed", map[string]interface{}{
		"user_id":   id,
		"actor_id":  actorID,
		"published": published,
	})
	return nil
}

func (s *staffService) Delete(ctx context.Context, actorID, id uint) error {
	if authz.IsSelf(actorID, id) {
		return ErrSelfAction
	}
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	if err := s.userRepo.Delete(id); err != nil {
		return err
	}
	s.profiles.Invalidate(ctx, id)

	logger.Info("Staff member deleted", map[string]interface{}{
		"user_id":  id,
		"actor_id": actorID,
	})
	return nil
}
