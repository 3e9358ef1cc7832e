package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	"github.com/zorvex/zorvex-backend/internal/middleware"
)

type CheckoutController struct {
	orderService   service.OrderService
	profileService service.ProfileService
}

func NewCheckoutController(orderService service.OrderService, profileService service.ProfileService) *CheckoutController {
	return &CheckoutController{
		orderService:   orderService,
		profileService: profileService,
	}
}

type CheckoutRequest struct {
	FirstName     string              `json:"first_name" binding:"required,max=100"`
	LastName      string              `json:"last_name" binding:"required,max=100"`
	Email         string              `json:"email" binding:"required,email"`
	Phone         string              `json:"phone" binding:"required,max=30"`
	Company       string              `json:"company" binding:"max=100"`
	Address       string              `json:"address" binding:"required,max=255"`
	Address2      string              `json:"address2" binding:"max=255"`
	City          string              `json:"city" binding:"required,max=100"`
	State         string              `json:"state" binding:"required,max=50"`
	Zip           string              `json:"zip" binding:"required,max=20"`
	Notes         string              `json:"notes" binding:"max=1000"`
	PaymentMethod model.PaymentMethod `json:"payment_method" binding:"omitempty,oneof=cash card credit"`
	CouponCode    string              `json:"coupon_code" binding:"max=50"`
}

// Summary returns the cart to be ordered and the caller's saved details
// GET /checkout
func (ctrl *CheckoutController) Summary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cart, ok := requireCart(c)
	if !ok {
		return
	}

	body := gin.H{
		"page": "checkout",
		"cart": summarize(cart, ctrl.orderService.MinOrderValue()),
	}
	// Prefill is best effort; checkout works without it.
	if profile, err := ctrl.profileService.GetMyProfile(c.Request.Context(), userID); err == nil && profile != nil {
		body["profile"] = profile
	}
	c.JSON(http.StatusOK, body)
}

// PlaceOrder turns the cart into an order
// POST /checkout
func (ctrl *CheckoutController) PlaceOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := currentUser(c)
	if !ok {
		return
	}
	cart, ok := requireCart(c)
	if !ok {
		return
	}

	var req CheckoutRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := ctrl.orderService.Checkout(c.Request.Context(), userID, cart, service.CheckoutInput{
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Phone:         req.Phone,
		Company:       req.Company,
		Address:       req.Address,
		Address2:      req.Address2,
		City:          req.City,
		State:         req.State,
		Zip:           req.Zip,
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
		CouponCode:    req.CouponCode,
	})
	if err != nil {
		respondError(c, err, "create order")
		return
	}

	log.Info("Order placed", map[string]interface{}{
		"order_id":   order.ID,
		"invoice_no": order.InvoiceNo,
	})
	c.JSON(http.StatusCreated, gin.H{
		"order": order,
	})
}
