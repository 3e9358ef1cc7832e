package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	apperrors "github.com/zorvex/zorvex-backend/internal/errors"
	"github.com/zorvex/zorvex-backend/internal/middleware"
	"github.com/zorvex/zorvex-backend/pkg/pagination"
	"github.com/zorvex/zorvex-backend/pkg/validation"
)

type serviceError struct {
	status  int
	code    string
	message string
}

// serviceErrors maps service sentinels to responses. Anything not listed
// goes through apperrors.ParseError.
var serviceErrors = []struct {
	err error
	serviceError
}{
	{service.ErrProductNotFound, serviceError{http.StatusNotFound, apperrors.ProductNotFound, "Product not found"}},
	{service.ErrProductSlugExists, serviceError{http.StatusConflict, apperrors.ProductSlugExists, "A product with this slug already exists"}},
	{service.ErrCategoryNotFound, serviceError{http.StatusNotFound, apperrors.CategoryNotFound, "Category not found"}},
	{service.ErrCategorySlugExists, serviceError{http.StatusConflict, apperrors.CategorySlugExists, "A category with this slug already exists"}},
	{service.ErrCategoryInUse, serviceError{http.StatusConflict, apperrors.CategoryInUse, "This category still has products"}},
	{service.ErrCouponNotFound, serviceError{http.StatusNotFound, apperrors.CouponNotFound, "Coupon not found"}},
	{service.ErrCouponCodeExists, serviceError{http.StatusConflict, apperrors.CouponCodeExists, "A coupon with this code already exists"}},
	{service.ErrCouponInvalid, serviceError{http.StatusBadRequest, apperrors.CouponInvalid, "This coupon cannot be used"}},
	{service.ErrCustomerNotFound, serviceError{http.StatusNotFound, apperrors.CustomerNotFound, "Customer not found"}},
	{service.ErrStaffNotFound, serviceError{http.StatusNotFound, apperrors.StaffNotFound, "Staff member not found"}},
	{service.ErrSelfAction, serviceError{http.StatusForbidden, apperrors.AuthzSelfAction, "You cannot do this to your own account"}},
	{service.ErrOrderNotFound, serviceError{http.StatusNotFound, apperrors.OrderNotFound, "Order not found"}},
	{service.ErrInvalidOrderStatus, serviceError{http.StatusBadRequest, apperrors.OrderInvalidStatus, "Unknown order status"}},
	{service.ErrEmptyCart, serviceError{http.StatusBadRequest, apperrors.CartEmpty, "Your cart is empty"}},
	{service.ErrBelowMinimum, serviceError{http.StatusBadRequest, apperrors.CartBelowMinimum, "Your order is below the minimum order value"}},
	{service.ErrInsufficientStock, serviceError{http.StatusConflict, apperrors.ProductOutOfStock, "Not enough stock for one of the items"}},
	{service.ErrUserNotFound, serviceError{http.StatusNotFound, apperrors.ResourceNotFound, "User not found"}},
}

// respondError writes the response for a service error and logs it.
// context names the operation for logs and storage error messages.
func respondError(c *gin.Context, err error, context string) {
	log := middleware.GetLoggerFromContext(c)

	for _, se := range serviceErrors {
		if errors.Is(err, se.err) {
			log.Warn("Request rejected", map[string]interface{}{
				"operation": context,
				"error":     err.Error(),
			})
			apperrors.RespondWithError(c, se.status, se.code, se.message)
			return
		}
	}

	log.Error("Request failed", err, map[string]interface{}{
		"operation": context,
	})
	apperrors.RespondWithParsedError(c, err, context)
}

// parseID reads a positive numeric path parameter, answering 400 when it is
// malformed.
func parseID(c *gin.Context, param string) (uint, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid ID format", map[string]interface{}{
			"param": param,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid ID")
		return 0, false
	}
	return uint(id), true
}

// pageQuery reads ?page= and ?limit=, falling back to the defaults.
func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return pagination.Normalize(page, limit)
}

// publishedQuery reads an optional ?published=true|false filter.
func publishedQuery(c *gin.Context) *bool {
	raw := c.Query("published")
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// currentUser returns the signed-in user id, answering 401 when there is none.
func currentUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return 0, false
	}
	return userID, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, validation.FieldErrors(err))
		return false
	}
	return true
}
