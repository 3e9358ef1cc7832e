package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	apperrors "github.com/zorvex/zorvex-backend/internal/errors"
	"github.com/zorvex/zorvex-backend/internal/middleware"
)

// recentOrdersOnAccount is how many orders the account overview shows.
const recentOrdersOnAccount = 5

type AccountController struct {
	profileService service.ProfileService
	orderService   service.OrderService
}

func NewAccountController(profileService service.ProfileService, orderService service.OrderService) *AccountController {
	return &AccountController{
		profileService: profileService,
		orderService:   orderService,
	}
}

type UpdateProfileRequest struct {
	Name      string  `json:"name" binding:"required,min=2,max=100"`
	Phone     string  `json:"phone" binding:"required,min=10,max=30"`
	StoreName string  `json:"store_name" binding:"required,min=2,max=100"`
	EIN       *string `json:"ein" binding:"omitempty,max=20"`
	Address   string  `json:"address" binding:"required,min=10,max=255"`
}

// loadProfile answers 401 when the session's user no longer exists.
func (ctrl *AccountController) loadProfile(c *gin.Context, userID uint) (*service.Profile, bool) {
	profile, err := ctrl.profileService.GetMyProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "get profile")
		return nil, false
	}
	if profile == nil {
		apperrors.Unauthorized(c, "Your account no longer exists")
		return nil, false
	}
	return profile, true
}

// GetMyProfile returns the caller's merged profile
// POST /api/v1/rpc/get_my_profile
// GET /api/v1/me
func (ctrl *AccountController) GetMyProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, ok := ctrl.loadProfile(c, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Overview returns the profile and the latest orders
// GET /account
func (ctrl *AccountController) Overview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, ok := ctrl.loadProfile(c, userID)
	if !ok {
		return
	}

	orders, err := ctrl.orderService.ListForUser(userID, 1, recentOrdersOnAccount)
	if err != nil {
		respondError(c, err, "list orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":          "account",
		"profile":       profile,
		"recent_orders": orders.Data,
		"total_orders":  orders.Pagination.Items,
	})
}

// ListOrders returns the caller's orders, newest first
// GET /account/orders
func (ctrl *AccountController) ListOrders(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, limit := pageQuery(c)

	orders, err := ctrl.orderService.ListForUser(userID, page, limit)
	if err != nil {
		respondError(c, err, "list orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder returns one of the caller's orders
// GET /account/orders/:id
func (ctrl *AccountController) GetOrder(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetForUser(userID, orderID)
	if err != nil {
		respondError(c, err, "get order")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order": order,
	})
}

// GetProfile returns the profile form
// GET /account/profile
func (ctrl *AccountController) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, ok := ctrl.loadProfile(c, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":    "account-profile",
		"profile": profile,
	})
}

// UpdateProfile saves the caller's profile
// PUT /account/profile
func (ctrl *AccountController) UpdateProfile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := ctrl.profileService.UpdateMyProfile(c.Request.Context(), userID, service.ProfileUpdate{
		Name:      req.Name,
		Phone:     req.Phone,
		StoreName: &req.StoreName,
		Address:   &req.Address,
		EIN:       req.EIN,
	})
	if err != nil {
		respondError(c, err, "update profile")
		return
	}

	log.Info("Profile updated", map[string]interface{}{
		"user_id": userID,
	})
	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
	})
}
