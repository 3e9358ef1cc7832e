package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	apperrors "github.com/zorvex/zorvex-backend/internal/errors"
	"github.com/zorvex/zorvex-backend/internal/middleware"
	"github.com/zorvex/zorvex-backend/internal/storage"
)

// ImagePresigner issues direct-to-bucket upload URLs.
type ImagePresigner interface {
	PresignImageUpload(ctx context.Context, folder, filename, contentType string) (*storage.PresignedUpload, error)
}

type AdminCatalogController struct {
	productService  service.ProductService
	categoryService service.CategoryService
	couponService   service.CouponService
	images          ImagePresigner
}

func NewAdminCatalogController(
	productService service.ProductService,
	categoryService service.CategoryService,
	couponService service.CouponService,
	images ImagePresigner,
) *AdminCatalogController {
	return &AdminCatalogController{
		productService:  productService,
		categoryService: categoryService,
		couponService:   couponService,
		images:          images,
	}
}

type ProductRequest struct {
	Name         string   `json:"name" binding:"required,max=200"`
	Slug         string   `json:"slug" binding:"omitempty,slug,max=200"`
	Description  string   `json:"description"`
	SellingPrice float64  `json:"selling_price" binding:"required,gt=0"`
	CostPrice    float64  `json:"cost_price" binding:"gte=0"`
	Stock        int      `json:"stock" binding:"gte=0"`
	ImageURL     string   `json:"image_url" binding:"omitempty,url"`
	Tags         []string `json:"tags" binding:"max=20,dive,max=50"`
	CategoryID   uint     `json:"category_id" binding:"required"`
	Published    bool     `json:"published"`
}

func (r ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:         r.Name,
		Slug:         r.Slug,
		Description:  r.Description,
		SellingPrice: r.SellingPrice,
		CostPrice:    r.CostPrice,
		Stock:        r.Stock,
		ImageURL:     r.ImageURL,
		Tags:         r.Tags,
		CategoryID:   r.CategoryID,
		Published:    r.Published,
	}
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Slug        string `json:"slug" binding:"omitempty,slug,max=100"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url" binding:"omitempty,url"`
	Published   bool   `json:"published"`
}

type CouponRequest struct {
	Name          string             `json:"name" binding:"required,max=100"`
	Code          string             `json:"code" binding:"required,min=3,max=50"`
	ImageURL      string             `json:"image_url" binding:"omitempty,url"`
	DiscountType  model.DiscountType `json:"discount_type" binding:"required,oneof=percentage fixed"`
	DiscountValue float64            `json:"discount_value" binding:"required,gt=0"`
	StartsAt      *time.Time         `json:"starts_at"`
	ExpiresAt     *time.Time         `json:"expires_at"`
	Published     bool               `json:"published"`
}

func (r CouponRequest) input() service.CouponInput {
	return service.CouponInput{
		Name:          r.Name,
		Code:          r.Code,
		ImageURL:      r.ImageURL,
		DiscountType:  r.DiscountType,
		DiscountValue: r.DiscountValue,
		StartsAt:      r.StartsAt,
		ExpiresAt:     r.ExpiresAt,
		Published:     r.Published,
	}
}

type PublishedRequest struct {
	Published *bool `json:"published" binding:"required"`
}

type PresignRequest struct {
	Folder      string `json:"folder" binding:"required"`
	Filename    string `json:"filename" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"required"`
}

// ==================== Products ====================

// ListProducts returns products for the back office
// GET /admin/products?search=&category_id=&published=&sort=&page=&limit=
func (ctrl *AdminCatalogController) ListProducts(c *gin.Context) {
	page, limit := pageQuery(c)
	query := service.ProductQuery{
		Page:      page,
		Limit:     limit,
		Search:    strings.TrimSpace(c.Query("search")),
		Sort:      repository.ProductSort(c.Query("sort")),
		Published: publishedQuery(c),
	}
	if raw := c.Query("category_id"); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 32); err == nil {
			categoryID := uint(id)
			query.CategoryID = &categoryID
		}
	}

	result, err := ctrl.productService.List(query)
	if err != nil {
		respondError(c, err, "list products")
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetProduct returns any product, published or not
// GET /admin/products/:id
func (ctrl *AdminCatalogController) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := ctrl.productService.GetByID(id)
	if err != nil {
		respondError(c, err, "get product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// CreateProduct adds a product to the catalogue
// POST /admin/products
func (ctrl *AdminCatalogController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.productService.Create(req.input())
	if err != nil {
		respondError(c, err, "create product")
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// UpdateProduct replaces a product's fields
// PUT /admin/products/:id
func (ctrl *AdminCatalogController) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.productService.Update(id, req.input())
	if err != nil {
		respondError(c, err, "update product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// SetProductPublished shows or hides a product in the storefront
// PATCH /admin/products/:id/published
func (ctrl *AdminCatalogController) SetProductPublished(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req PublishedRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ctrl.productService.SetPublished(id, *req.Published); err != nil {
		respondError(c, err, "update product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "published": *req.Published})
}

// DeleteProduct removes a product
// DELETE /admin/products/:id
func (ctrl *AdminCatalogController) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.productService.Delete(id); err != nil {
		respondError(c, err, "delete product")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Product deleted", map[string]interface{}{
		"product_id": id,
	})
	c.Status(http.StatusNoContent)
}

// PresignImage returns a URL the browser can upload an image to
// POST /admin/uploads/presign
func (ctrl *AdminCatalogController) PresignImage(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.images == nil {
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.UploadFailed, "Image uploads are not configured")
		return
	}

	var req PresignRequest
	if !bindJSON(c, &req) {
		return
	}

	upload, err := ctrl.images.PresignImageUpload(c.Request.Context(), req.Folder, req.Filename, req.ContentType)
	if err != nil {
		if errors.Is(err, storage.ErrContentTypeNotAllowed) || errors.Is(err, storage.ErrFolderNotAllowed) {
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, err.Error())
			return
		}
		log.Error("Failed to presign upload", err, map[string]interface{}{
			"folder": req.Folder,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Could not prepare the upload")
		return
	}

	c.JSON(http.StatusOK, upload)
}

// ==================== Categories ====================

// ListCategories returns categories for the back office
// GET /admin/categories?search=&page=&limit=
func (ctrl *AdminCatalogController) ListCategories(c *gin.Context) {
	page, limit := pageQuery(c)
	result, err := ctrl.categoryService.List(page, limit, strings.TrimSpace(c.Query("search")))
	if err != nil {
		respondError(c, err, "list categories")
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateCategory POST /admin/categories
func (ctrl *AdminCatalogController) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := ctrl.categoryService.Create(service.CategoryInput(req))
	if err != nil {
		respondError(c, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// UpdateCategory PUT /admin/categories/:id
func (ctrl *AdminCatalogController) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := ctrl.categoryService.Update(id, service.CategoryInput(req))
	if err != nil {
		respondError(c, err, "update category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// SetCategoryPublished PATCH /admin/categories/:id/published
func (ctrl *AdminCatalogController) SetCategoryPublished(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req PublishedRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := ctrl.categoryService.SetPublished(id, *req.Published); err != nil {
		respondError(c, err, "update category")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "published": *req.Published})
}

// DeleteCategory DELETE /admin/categories/:id
func (ctrl *AdminCatalogController) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.categoryService.Delete(id); err != nil {
		respondError(c, err, "delete category")
		return
	}
	c.Status(http.StatusNoContent)
}

// ==================== Coupons ====================

// ListCoupons GET /admin/coupons?search=&page=&limit=
func (ctrl *AdminCatalogController) ListCoupons(c *gin.Context) {
	page, limit := pageQuery(c)
	result, err := ctrl.couponService.List(page, limit, strings.TrimSpace(c.Query("search")))
	if err != nil {
		respondError(c, err, "list coupons")
		return
	}
	c.JSON(http.StatusOK, result)
}

// CreateCoupon POST /admin/coupons
func (ctrl *AdminCatalogController) CreateCoupon(c *gin.Context) {
	var req CouponRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.DiscountType == model.DiscountPercentage && req.DiscountValue > 100 {
		apperrors.RespondWithValidationError(c, map[string]string{
			"discount_value": "Percentage discounts cannot exceed 100",
		})
		return
	}
	coupon, err := ctrl.couponService.Create(req.input())
	if err != nil {
		respondError(c, err, "create coupon")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"coupon": coupon})
}

// UpdateCoupon PUT /admin/coupons/:id
func (ctrl *AdminCatalogController) UpdateCoupon(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CouponRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.DiscountType == model.DiscountPercentage && req.DiscountValue > 100 {
		apperrors.RespondWithValidationError(c, map[string]string{
			"discount_value": "Percentage discounts cannot exceed 100",
		})
		return
	}
	coupon, err := ctrl.couponService.Update(id, req.input())
	if err != nil {
		respondError(c, err, "update coupon")
		return
	}
	c.JSON(http.StatusOK, gin.H{"coupon": coupon})
}

// SetCouponPublished PATCH /admin/coupons/:id/published
func (ctrl *AdminCatalogController) SetCouponPublished(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req PublishedRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := ctrl.couponService.SetPublished(id, *req.Published); err != nil {
		respondError(c, err, "update coupon")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "published": *req.Published})
}

// DeleteCoupon DELETE /admin/coupons/:id
func (ctrl *AdminCatalogController) DeleteCoupon(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.couponService.Delete(id); err != nil {
		respondError(c, err, "delete coupon")
		return
	}
	c.Status(http.StatusNoContent)
}
