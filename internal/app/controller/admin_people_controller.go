package controller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	"github.com/zorvex/zorvex-backend/internal/middleware"
)

// AdminPeopleController serves customers, staff and the staff member's own
// profile.
type AdminPeopleController struct {
	customerService service.CustomerService
	staffService    service.StaffService
	orderService    service.OrderService
	profileService  service.ProfileService
}

func NewAdminPeopleController(
	customerService service.CustomerService,
	staffService service.StaffService,
	orderService service.OrderService,
	profileService service.ProfileService,
) *AdminPeopleController {
	return &AdminPeopleController{
		customerService: customerService,
		staffService:    staffService,
		orderService:    orderService,
		profileService:  profileService,
	}
}

type CustomerRequest struct {
	Name      string `json:"name" binding:"required,min=2,max=100"`
	Email     string `json:"email" binding:"omitempty,email"`
	Phone     string `json:"phone" binding:"max=30"`
	Address   string `json:"address" binding:"max=255"`
	StoreName string `json:"store_name" binding:"max=100"`
	EIN       string `json:"ein" binding:"max=20"`
}

type StaffRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Phone    string `json:"phone" binding:"max=30"`
	ImageURL string `json:"image_url" binding:"omitempty,url"`
}

type EditProfileRequest struct {
	Name     string  `json:"name" binding:"required,min=2,max=100"`
	Phone    string  `json:"phone" binding:"max=30"`
	ImageURL *string `json:"image_url" binding:"omitempty,url"`
}

// ==================== Customers ====================

// ListCustomers GET /admin/customers?search=&page=&limit=
func (ctrl *AdminPeopleController) ListCustomers(c *gin.Context) {
	page, limit := pageQuery(c)
	result, err := ctrl.customerService.List(page, limit, strings.TrimSpace(c.Query("search")))
	if err != nil {
		respondError(c, err, "list customers")
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateCustomer PUT /admin/customers/:id
func (ctrl *AdminPeopleController) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req CustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := ctrl.customerService.Update(c.Request.Context(), id, service.CustomerInput(req))
	if err != nil {
		respondError(c, err, "update customer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}

// DeleteCustomer DELETE /admin/customers/:id
func (ctrl *AdminPeopleController) DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.customerService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete customer")
		return
	}

	middleware.GetLoggerFromContext(c).Info("Customer deleted", map[string]interface{}{
		"customer_id": id,
	})
	c.Status(http.StatusNoContent)
}

// CustomerOrders returns one customer's orders
// GET /admin/customer-orders/:id
func (ctrl *AdminPeopleController) CustomerOrders(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	customer, err := ctrl.customerService.GetByID(id)
	if err != nil {
		respondError(c, err, "get customer")
		return
	}

	page, limit := pageQuery(c)
	orders, err := ctrl.orderService.List(service.OrderQuery{
		Page:       page,
		Limit:      limit,
		CustomerID: &customer.ID,
	})
	if err != nil {
		respondError(c, err, "list orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"customer":   customer,
		"data":       orders.Data,
		"pagination": orders.Pagination,
	})
}

// ==================== Staff ====================

// ListStaff GET /admin/staff?search=&page=&limit=
func (ctrl *AdminPeopleController) ListStaff(c *gin.Context) {
	page, limit := pageQuery(c)
	result, err := ctrl.staffService.List(page, limit, strings.TrimSpace(c.Query("search")))
	if err != nil {
		respondError(c, err, "list staff")
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateStaff PUT /admin/staff/:id
func (ctrl *AdminPeopleController) UpdateStaff(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req StaffRequest
	if !bindJSON(c, &req) {
		return
	}
	staff, err := ctrl.staffService.Update(c.Request.Context(), id, service.StaffInput(req))
	if err != nil {
		respondError(c, err, "update staff")
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}

// SetStaffPublished PATCH /admin/staff/:id/published
func (ctrl *AdminPeopleController) SetStaffPublished(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req PublishedRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := ctrl.staffService.SetPublished(c.Request.Context(), actorID, id, *req.Published); err != nil {
		respondError(c, err, "update staff")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "published": *req.Published})
}

// DeleteStaff DELETE /admin/staff/:id
func (ctrl *AdminPeopleController) DeleteStaff(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.staffService.Delete(c.Request.Context(), actorID, id); err != nil {
		respondError(c, err, "delete staff")
		return
	}
	c.Status(http.StatusNoContent)
}

// ==================== Edit profile ====================

// GetEditProfile GET /admin/edit-profile
func (ctrl *AdminPeopleController) GetEditProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	profile, err := ctrl.profileService.GetMyProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "get profile")
		return
	}
	if profile == nil {
		respondError(c, service.ErrUserNotFound, "get profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

// UpdateEditProfile PUT /admin/edit-profile
func (ctrl *AdminPeopleController) UpdateEditProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req EditProfileRequest
	if !bindJSON(c, &req) {
		return
	}
	profile, err := ctrl.profileService.UpdateMyProfile(c.Request.Context(), userID, service.ProfileUpdate{
		Name:     req.Name,
		Phone:    req.Phone,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		respondError(c, err, "update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
