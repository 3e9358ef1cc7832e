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
	ErrProductNotFound   = errors.New("product not found")
	ErrProductSlugExists = errors.New("product slug already exists")
)

type ProductQuery struct {
	Page         int
	Limit        int
	CategorySlug string
	CategoryID   *uint
	Search       string
	Sort         repository.ProductSort
	Published    *bool
}

type ProductInput struct {
	Name         string
	Slug         string
	Description  string
	SellingPrice float64
	CostPrice    float64
	Stock        int
	ImageURL     string
	Tags         []string
	CategoryID   uint
	Published    bool
}

type ProductService interface {
	// ListPublished only ever returns published products.
	ListPublished(query ProductQuery) (pagination.Page[model.Product], error)
	List(query ProductQuery) (pagination.Page[model.Product], error)
	Newest(limit int) ([]model.Product, error)
	GetPublishedBySlug(slug string) (*model.Product, error)
	GetPublishedByID(id uint) (*model.Product, error)
	GetByID(id uint) (*model.Product, error)
	Create(input ProductInput) (*model.Product, error)
	Update(id uint, input ProductInput) (*model.Product, error)
	SetPublished(id uint, published bool) error
	Delete(id uint) error
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
}

func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository) ProductService {
	return &productService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

func (s *productService) ListPublished(query ProductQuery) (pagination.Page[model.Product], error) {
	published := true
	query.Published = &published
	return s.List(query)
}

func (s *productService) List(query ProductQuery) (pagination.Page[model.Product], error) {
	page, limit := pagination.Normalize(query.Page, query.Limit)

	products, total, err := s.productRepo.FindWithFilter(repository.ProductFilter{
		CategorySlug: query.CategorySlug,
		CategoryID:   query.CategoryID,
		Search:       query.Search,
		Published:    query.Published,
		SortBy:       query.Sort,
		Limit:        limit,
		Offset:       pagination.Offset(page, limit),
	})
	if err != nil {
		logger.Error("Failed to list products", err, map[string]interface{}{
			"category": query.CategorySlug,
			"search":   query.Search,
		})
		return pagination.Page[model.Product]{}, err
	}

	return pagination.NewPage(products, page, limit, total), nil
}

func (s *productService) Newest(limit int) ([]model.Product, error) {
	published := true
	products, _, err := s.productRepo.FindWithFilter(repository.ProductFilter{
		Published: &published,
		SortBy:    repository.ProductSortNewest,
		Limit:     limit,
	})
	return products, err
}

func (s *productService) GetPublishedBySlug(slug string) (*model.Product, error) {
	product, err := s.productRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !product.Published {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *productService) GetPublishedByID(id uint) (*model.Product, error) {
	product, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !product.Published {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *productService) GetByID(id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) checkCategory(id uint) error {
	if _, err := s.categoryRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCategoryNotFound
		}
		return err
	}
	return nil
}

func (s *productService) apply(product *model.Product, input ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Slug = input.Slug
	if product.Slug == "" {
		product.Slug = validation.Slugify(product.Name)
	}
	product.Description = input.Description
	product.SellingPrice = input.SellingPrice
	product.CostPrice = input.CostPrice
	product.Stock = input.Stock
	product.ImageURL = input.ImageURL
	product.Tags = input.Tags
	product.CategoryID = input.CategoryID
	product.Published = input.Published
}

func (s *productService) Create(input ProductInput) (*model.Product, error) {
	logger.Info("Creating product", map[string]interface{}{
		"name":        input.Name,
		"category_id": input.CategoryID,
	})

	if err := s.checkCategory(input.CategoryID); err != nil {
		return nil, err
	}

	product := &model.Product{}
	s.apply(product, input)
	if err := s.productRepo.Create(product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProductSlugExists
		}
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return s.GetByID(product.ID)
}

func (s *productService) Update(id uint, input ProductInput) (*model.Product, error) {
	product, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if input.CategoryID != product.CategoryID {
		if err := s.checkCategory(input.CategoryID); err != nil {
			return nil, err
		}
	}

	s.apply(product, input)
	product.Category = nil
	if err := s.productRepo.Update(product); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrProductSlugExists
		}
		return nil, err
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": product.ID,
	})
	return s.GetByID(product.ID)
}

func (s *productService) SetPublished(id uint, published bool) error {
	if err := s.productRepo.SetPublished(id, published); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	logger.Info("Product visibility changed", map[string]interface{}{
		"product_id": id,
		"published":  published,
	})
	return nil
}

func (s *productService) Delete(id uint) error {
	if err := s.productRepo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	logger.Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	return nil
}
