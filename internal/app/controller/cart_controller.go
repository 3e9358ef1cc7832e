package controller

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zorvex/zorvex-backend/internal/app/service"
	"github.com/zorvex/zorvex-backend/internal/cartstore"
	apperrors "github.com/zorvex/zorvex-backend/internal/errors"
	"github.com/zorvex/zorvex-backend/internal/middleware"
)

type CartController struct {
	productService service.ProductService
	orderService   service.OrderService
}

func NewCartController(productService service.ProductService, orderService service.OrderService) *CartController {
	return &CartController{
		productService: productService,
		orderService:   orderService,
	}
}

type AddToCartRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"omitempty,min=1,max=99"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0,max=99"`
}

// CartSummary is the cart as the storefront renders it.
type CartSummary struct {
	Items         []cartstore.LineItem `json:"items"`
	ItemCount     int                  `json:"item_count"`
	Subtotal      float64              `json:"subtotal"`
	MinOrderValue float64              `json:"min_order_value"`
	Shortfall     float64              `json:"shortfall"`
	CanCheckout   bool                 `json:"can_checkout"`
}

func summarize(cart *cartstore.Store, minOrderValue float64) CartSummary {
	items := cart.Items()
	subtotal := math.Round(cart.Subtotal()*100) / 100
	shortfall := 0.0
	if subtotal < minOrderValue {
		shortfall = math.Round((minOrderValue-subtotal)*100) / 100
	}
	return CartSummary{
		Items:         items,
		ItemCount:     cart.ItemCount(),
		Subtotal:      subtotal,
		MinOrderValue: minOrderValue,
		Shortfall:     shortfall,
		CanCheckout:   len(items) > 0 && shortfall == 0,
	}
}

// requireCart returns the cart attached by the cart session middleware.
func requireCart(c *gin.Context) (*cartstore.Store, bool) {
	cart, ok := middleware.GetCart(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Error("Cart session missing", nil, map[string]interface{}{
			"path": c.FullPath(),
		})
		apperrors.InternalError(c, "")
		return nil, false
	}
	return cart, true
}

// GetCart returns the browser's cart
// GET /cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	cart, ok := requireCart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, summarize(cart, ctrl.orderService.MinOrderValue()))
}

// AddItem adds a published product to the cart
// POST /cart/items
func (ctrl *CartController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	cart, ok := requireCart(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := ctrl.productService.GetPublishedByID(req.ProductID)
	if err != nil {
		respondError(c, err, "add to cart")
		return
	}

	cart.AddItem(cartstore.Product{
		ID:       strconv.FormatUint(uint64(product.ID), 10),
		Name:     product.Name,
		Price:    product.SellingPrice,
		Image:    product.ImageURL,
		Category: product.CategoryName(),
	}, req.Quantity)

	log.Info("Item added to cart", map[string]interface{}{
		"cart":       cart.Key(),
		"product_id": product.ID,
		"quantity":   req.Quantity,
	})
	c.JSON(http.StatusOK, summarize(cart, ctrl.orderService.MinOrderValue()))
}

// UpdateItem sets the quantity of a cart entry; zero removes it
// PUT /cart/items/:id
func (ctrl *CartController) UpdateItem(c *gin.Context) {
	cart, ok := requireCart(c)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if !bindJSON(c, &req) {
		return
	}

	cart.UpdateQuantity(c.Param("id"), *req.Quantity)
	c.JSON(http.StatusOK, summarize(cart, ctrl.orderService.MinOrderValue()))
}

// RemoveItem deletes a cart entry
// DELETE /cart/items/:id
func (ctrl *CartController) RemoveItem(c *gin.Context) {
	cart, ok := requireCart(c)
	if !ok {
		return
	}
	cart.RemoveItem(c.Param("id"))
	c.JSON(http.StatusOK, summarize(cart, ctrl.orderService.MinOrderValue()))
}

// ClearCart empties the cart
// DELETE /cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	cart, ok := requireCart(c)
	if !ok {
		return
	}
	cart.ClearCart()
	c.JSON(http.StatusOK, summarize(cart, ctrl.orderService.MinOrderValue()))
}
