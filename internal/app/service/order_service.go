package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/internal/app/repository"
	"github.com/zorvex/zorvex-backend/internal/cartstore"
	"github.com/zorvex/zorvex-backend/internal/websocket"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"github.com/zorvex/zorvex-backend/pkg/metrics"
	"github.com/zorvex/zorvex-backend/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrBelowMinimum       = errors.New("order is below the minimum value")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// CheckoutCart is the part of a cart that checkout reads and clears.
type CheckoutCart interface {
	Items() []cartstore.LineItem
	Subtotal() float64
	ClearCart()
}

// EventPublisher receives order events for the back-office feed.
type EventPublisher interface {
	Publish(eventType string, data interface{})
}

type CheckoutInput struct {
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Company       string
	Address       string
	Address2      string
	City          string
	State         string
	Zip           string
	Notes         string
	PaymentMethod model.PaymentMethod
	CouponCode    string
}

func (in CheckoutInput) shippingAddress() string {
	lines := []string{in.Address}
	if in.Address2 != "" {
		lines = append(lines, in.Address2)
	}
	lines = append(lines, fmt.Sprintf("%s, %s %s", in.City, in.State, in.Zip))
	return strings.Join(lines, "\n")
}

type OrderQuery struct {
	Page       int
	Limit      int
	Status     model.OrderStatus
	Search     string
	CustomerID *uint
}

type CheckoutSettings struct {
	MinOrderValue float64
	ShippingCost  float64
}

type OrderService interface {
	Checkout(ctx context.Context, userID uint, cart CheckoutCart, input CheckoutInput) (*model.Order, error)
	ListForUser(userID uint, page, limit int) (pagination.Page[model.Order], error)
	GetForUser(userID, orderID uint) (*model.Order, error)
	List(query OrderQuery) (pagination.Page[model.Order], error)
	// Export returns every order matching query, ignoring pagination.
	Export(query OrderQuery) ([]model.Order, error)
	GetByID(id uint) (*model.Order, error)
	ChangeStatus(id uint, status model.OrderStatus) (*model.Order, error)
	MinOrderValue() float64
}

type orderService struct {
	orderRepo    repository.OrderRepository
	customerRepo repository.CustomerRepository
	coupons      CouponService
	events       EventPublisher
	db           *gorm.DB
	settings     CheckoutSettings
	now          func() time.Time
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	customerRepo repository.CustomerRepository,
	coupons CouponService,
	events EventPublisher,
	db *gorm.DB,
	settings CheckoutSettings,
) OrderService {
	return &orderService{
		orderRepo:    orderRepo,
		customerRepo: customerRepo,
		coupons:      coupons,
		events:       events,
		db:           db,
		settings:     settings,
		now:          time.Now,
	}
}

func (s *orderService) MinOrderValue() float64 {
	return s.settings.MinOrderValue
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func newInvoiceNo(t time.Time) string {
	return fmt.Sprintf("ZX-%s-%s", t.Format("20060102"), strings.ToUpper(uuid.NewString()[:8]))
}

// Checkout turns the cart into an order. Prices come from the catalogue at
// checkout time; stock is decremented under row locks in one transaction.
// The cart is cleared only after the order is committed.
func (s *orderService) Checkout(ctx context.Context, userID uint, cart CheckoutCart, input CheckoutInput) (*model.Order, error) {
	items := cart.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if subtotal := cart.Subtotal(); subtotal < s.settings.MinOrderValue {
		return nil, fmt.Errorf("%w: subtotal %.2f, minimum %.2f", ErrBelowMinimum, subtotal, s.settings.MinOrderValue)
	}

	now := s.now()
	var coupon *model.Coupon
	if code := strings.TrimSpace(input.CouponCode); code != "" {
		c, err := s.coupons.Redeemable(code, now)
		if err != nil {
			return nil, err
		}
		coupon = c
	}

	if input.PaymentMethod == "" {
		input.PaymentMethod = model.PaymentCash
	}

	logger.Info("Creating order from cart", map[string]interface{}{
		"user_id": userID,
		"items":   len(items),
	})

	order := &model.Order{
		InvoiceNo:       newInvoiceNo(now),
		OrderTime:       now,
		Status:          model.OrderStatusPending,
		PaymentMethod:   input.PaymentMethod,
		ShippingName:    strings.TrimSpace(input.FirstName + " " + input.LastName),
		ShippingEmail:   normalizeEmail(input.Email),
		ShippingPhone:   input.Phone,
		ShippingCompany: input.Company,
		ShippingAddress: input.shippingAddress(),
		Notes:           input.Notes,
		ShippingCost:    s.settings.ShippingCost,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.customerFor(tx, userID, order)
		if err != nil {
			return err
		}
		order.CustomerID = customer.ID

		subtotal := 0.0
		for _, item := range items {
			productID, err := strconv.ParseUint(item.ID, 10, 64)
			if err != nil {
				return ErrProductNotFound
			}

			var product model.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, uint(productID)).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrProductNotFound
				}
				return err
			}
			if !product.Published {
				return ErrProductNotFound
			}
			if product.Stock < item.Quantity {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, product.Name)
			}

			order.OrderItems = append(order.OrderItems, model.OrderItem{
				ProductID:   product.ID,
				ProductName: product.Name,
				Quantity:    item.Quantity,
				UnitPrice:   product.SellingPrice,
			})
			subtotal += product.SellingPrice * float64(item.Quantity)

			if err := tx.Model(&model.Product{}).
				Where("id = ?", product.ID).
				Update("stock", gorm.Expr("stock - ?", item.Quantity)).Error; err != nil {
				return err
			}
		}

		order.Subtotal = roundCents(subtotal)
		if coupon != nil {
			order.CouponID = &coupon.ID
			order.DiscountAmount = coupon.Discount(order.Subtotal)
		}
		order.TotalAmount = roundCents(order.Subtotal - order.DiscountAmount + order.ShippingCost)

		return tx.Create(order).Error
	})
	if err != nil {
		logger.Error("Checkout failed", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	cart.ClearCart()
	metrics.RecordOrderPlaced()
	if s.events != nil {
		s.events.Publish(websocket.EventOrderCreated, map[string]interface{}{
			"id":           order.ID,
			"invoice_no":   order.InvoiceNo,
			"customer":     order.ShippingName,
			"total_amount": order.TotalAmount,
			"status":       order.Status,
		})
	}

	logger.Info("Order created", map[string]interface{}{
		"order_id":     order.ID,
		"invoice_no":   order.InvoiceNo,
		"total_amount": order.TotalAmount,
	})
	return s.GetByID(order.ID)
}

// customerFor returns the customer row of userID, creating one from the
// shipping details when the user has none.
func (s *orderService) customerFor(tx *gorm.DB, userID uint, order *model.Order) (*model.Customer, error) {
	var customer model.Customer
	err := tx.Where("user_id = ?", userID).First(&customer).Error
	if err == nil {
		return &customer, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	customer = model.Customer{
		UserID:  &userID,
		Name:    order.ShippingName,
		Email:   order.ShippingEmail,
		Phone:   order.ShippingPhone,
		Address: order.ShippingAddress,
	}
	if err := tx.Create(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (s *orderService) ListForUser(userID uint, page, limit int) (pagination.Page[model.Order], error) {
	customer, err := s.customerRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			page, limit = pagination.Normalize(page, limit)
			return pagination.NewPage([]model.Order{}, page, limit, 0), nil
		}
		return pagination.Page[model.Order]{}, err
	}
	return s.List(OrderQuery{Page: page, Limit: limit, CustomerID: &customer.ID})
}

// GetForUser reports orders of other customers as not found.
func (s *orderService) GetForUser(userID, orderID uint) (*model.Order, error) {
	customer, err := s.customerRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	order, err := s.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customer.ID {
		logger.Warn("Order access denied: not owner", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
		})
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *orderService) List(query OrderQuery) (pagination.Page[model.Order], error) {
	page, limit := pagination.Normalize(query.Page, query.Limit)
	orders, total, err := s.orderRepo.FindWithFilter(repository.OrderFilter{
		Status:     query.Status,
		CustomerID: query.CustomerID,
		Search:     query.Search,
		Limit:      limit,
		Offset:     pagination.Offset(page, limit),
	})
	if err != nil {
		return pagination.Page[model.Order]{}, err
	}
	return pagination.NewPage(orders, page, limit, total), nil
}

func (s *orderService) Export(query OrderQuery) ([]model.Order, error) {
	orders, _, err := s.orderRepo.FindWithFilter(repository.OrderFilter{
		Status:     query.Status,
		CustomerID: query.CustomerID,
		Search:     query.Search,
	})
	return orders, err
}

func (s *orderService) GetByID(id uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) ChangeStatus(id uint, status model.OrderStatus) (*model.Order, error) {
	if !model.ValidOrderStatus(status) {
		return nil, ErrInvalidOrderStatus
	}
	if err := s.orderRepo.UpdateStatus(id, status); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	order, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if s.events != nil {
		s.events.Publish(websocket.EventOrderStatusChanged, map[string]interface{}{
			"id":         order.ID,
			"invoice_no": order.InvoiceNo,
			"status":     order.Status,
		})
	}

	logger.Info("Order status changed", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})
	return order, nil
}
