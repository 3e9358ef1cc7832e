package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	"github.com/zorvex/zorvex-backend/internal/middleware"
)

// homeNewestProducts is how many products the home page features.
const homeNewestProducts = 8

type StorefrontController struct {
	productService  service.ProductService
	categoryService service.CategoryService
}

func NewStorefrontController(productService service.ProductService, categoryService service.CategoryService) *StorefrontController {
	return &StorefrontController{
		productService:  productService,
		categoryService: categoryService,
	}
}

// Home returns the published categories and the newest products
// GET /
func (ctrl *StorefrontController) Home(c *gin.Context) {
	categories, err := ctrl.categoryService.ListPublished()
	if err != nil {
		respondError(c, err, "list categories")
		return
	}
	products, err := ctrl.productService.Newest(homeNewestProducts)
	if err != nil {
		respondError(c, err, "list products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":       "home",
		"categories": categories,
		"products":   products,
	})
}

// ListProducts returns published products
// GET /products?category=&search=&sort=&page=&limit=
func (ctrl *StorefrontController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	page, limit := pageQuery(c)
	sort := repository.ProductSort(c.Query("sort"))
	if sort != "" && !repository.ValidProductSort(sort) {
		log.Debug("Ignoring unknown sort", map[string]interface{}{
			"sort": sort,
		})
		sort = repository.ProductSortNewest
	}

	result, err := ctrl.productService.ListPublished(service.ProductQuery{
		Page:         page,
		Limit:        limit,
		CategorySlug: c.Query("category"),
		Search:       strings.TrimSpace(c.Query("search")),
		Sort:         sort,
	})
	if err != nil {
		respondError(c, err, "list products")
		return
	}

	log.Info("Products fetched successfully", map[string]interface{}{
		"count": len(result.Data),
	})
	c.JSON(http.StatusOK, result)
}

// GetProduct returns one published product
// GET /products/:slug
func (ctrl *StorefrontController) GetProduct(c *gin.Context) {
	product, err := ctrl.productService.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		respondError(c, err, "get product")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}
