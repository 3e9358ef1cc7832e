package service

import (
	"errors"
	"strings"

	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"github.com/zorvex/zorvex-backend/pkg/pagination"
	"github.com/zorvex/zorvex-backend/pkg/validation"
	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCategorySlugExists = errors.New("category slug already exists")
	ErrCategoryInUse      = errors.New("category still has products")
)

type CategoryInput struct {
	Name        string
	Slug        string
	Description string
	ImageURL    string
	Published   bool
}

type CategoryService interface {
	ListPublished() ([]model.Category, error)
	List(page, limit int, search string) (pagination.Page[model.Category], error)
	GetByID(id uint) (*model.Category, error)
	Create(input CategoryInput) (*model.Category, error)
	Update(id uint, input CategoryInput) (*model.Category, error)
	SetPublished(id uint, published bool) error
	Delete(id uint) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo}
}

func (s *categoryService) ListPublished() ([]model.Category, error) {
	published := true
	categories, _, err := s.categoryRepo.FindAll(repository.CategoryFilter{Published: &published})
	return categories, err
}

func (s *categoryService) List(page, limit int, search string) (pagination.Page[model.Category], error) {
	page, limit = pagination.Normalize(page, limit)
	categories, total, err := s.categoryRepo.FindAll(repository.CategoryFilter{
		Search: search,
		Limit:  limit,
		Offset: pagination.Offset(page, limit),
	})
	if err != nil {
		return pagination.Page[model.Category]{}, err
	}
	return pagination.NewPage(categories, page, limit, total), nil
}

func (s *categoryService) GetByID(id uint) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

func applyCategory(category *model.Category, input CategoryInput) {
	category.Name = strings.TrimSpace(input.Name)
	category.Slug = input.Slug
	if category.Slug == "" {
		category.Slug = validation.Slugify(category.Name)
	}
	category.Description = input.Description
	category.ImageURL = input.ImageURL
	category.Published = input.Published
}

func (s *categoryService) Create(input CategoryInput) (*model.Category, error) {
	category := &model.Category{}
	applyCategory(category, input)
	if err := s.categoryRepo.Create(category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategorySlugExists
		}
		return nil, err
	}
	logger.Info("Category created", map[string]interface{}{
		"category_id": category.ID,
		"slug":        category.Slug,
	})
	return category, nil
}

func (s *categoryService) Update(id uint, input CategoryInput) (*model.Category, error) {
	category, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	applyCategory(category, input)
	if err := s.categoryRepo.Update(category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrCategorySlugExists
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) SetPublished(id uint, published bool) error {
	if err := s.categoryRepo.SetPublished(id, published); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (s *categoryService) Delete(id uint) error {
	err := s.categoryRepo.Delete(id)
	switch {
	case err == nil:
		logger.Info("Category deleted", map[string]interface{}{
			"category_id": id,
		})
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrCategoryInUse
	}
	return err
}
