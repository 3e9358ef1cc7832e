package repository

import (
	"time"

	"github.com/zorvex/zorvex-backend/internal/app/model"
	"github.com/zorvex/zorvex-backend/pkg/logger"
	"gorm.io/gorm"
)

type OrderFilter struct {
	Status     model.OrderStatus
	CustomerID *uint
	// Search matches the invoice number or the shipping name.
	Search string
	Limit  int
	Offset int
}

type OrderStats struct {
	TotalOrders   int64   `json:"total_orders"`
	PendingOrders int64   `json:"pending_orders"`
	TodayOrders   int64   `json:"today_orders"`
	TotalRevenue  float64 `json:"total_revenue"`
}

type OrderRepository interface {
	Create(order *model.Order) error
	FindByID(id uint) (*model.Order, error)
	FindWithFilter(filter OrderFilter) ([]model.Order, int64, error)
	UpdateStatus(id uint, status model.OrderStatus) error
	Stats(since time.Time) (*OrderStats, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloadOrder(db *gorm.DB) *gorm.DB {
	return db.Preload("OrderItems").Preload("Customer").Preload("Coupon")
}

func (r *orderRepository) Create(order *model.Order) error {
	logger.Debug("Creating order in database", map[string]interface{}{
		"customer_id":  order.CustomerID,
		"total_amount": order.TotalAmount,
	})

	if err := r.db.Create(order).Error; err != nil {
		logger.Error("Failed to create order in database", err, map[string]interface{}{
			"customer_id":  order.CustomerID,
			"total_amount": order.TotalAmount,
		})
		return err
	}

	logger.Debug("Order created in database", map[string]interface{}{
		"order_id":   order.ID,
		"invoice_no": order.InvoiceNo,
	})
	return nil
}

func (r *orderRepository) FindByID(id uint) (*model.Order, error) {
	logger.Debug("Finding order by ID in database", map[string]interface{}{
		"order_id": id,
	})

	var order model.Order
	if err := r.preloadOrder(r.db).First(&order, id).Error; err != nil {
		logger.Error("Failed to find order by ID in database", err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	logger.Debug("Order found by ID in database", map[string]interface{}{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"status":      order.Status,
	})
	return &order, nil
}

func (r *orderRepository) FindWithFilter(filter OrderFilter) ([]model.Order, int64, error) {
	logger.Debug("Finding orders with filter", map[string]interface{}{
		"status":      filter.Status,
		"customer_id": filter.CustomerID,
		"search":      filter.Search,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})

	query := r.db.Model(&model.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(invoice_no) LIKE ? OR LOWER(shipping_name) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		logger.Error("Failed to count orders with filter", err, nil)
		return nil, 0, err
	}

	var orders []model.Order
	if err := r.preloadOrder(paginate(query, filter.Limit, filter.Offset)).
		Order("order_time DESC, id DESC").
		Find(&orders).Error; err != nil {
		logger.Error("Failed to find orders with filter", err, nil)
		return nil, 0, err
	}

	logger.Debug("Orders found with filter", map[string]interface{}{
		"count": len(orders),
		"total": total,
	})
	return orders, total, nil
}

func (r *orderRepository) UpdateStatus(id uint, status model.OrderStatus) error {
	logger.Debug("Updating order status in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})

	result := r.db.Model(&model.Order{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		logger.Error("Failed to update order status in database", result.Error, map[string]interface{}{
			"order_id": id,
			"status":   status,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	logger.Debug("Order status updated in database", map[string]interface{}{
		"order_id": id,
		"status":   status,
	})
	return nil
}

// Stats summarises all orders. Revenue excludes cancelled orders; TodayOrders
// counts orders placed at or after since.
func (r *orderRepository) Stats(since time.Time) (*OrderStats, error) {
	var stats OrderStats
	base := r.db.Model(&model.Order{})

	if err := base.Session(&gorm.Session{}).Count(&stats.TotalOrders).Error; err != nil {
		logger.Error("Failed to count orders", err, nil)
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", model.OrderStatusPending).
		Count(&stats.PendingOrders).Error; err != nil {
		logger.Error("Failed to count pending orders", err, nil)
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("order_time >= ?", since).
		Count(&stats.TodayOrders).Error; err != nil {
		logger.Error("Failed to count today's orders", err, nil)
		return nil, err
	}

	var revenue struct {
		Total float64
	}
	if err := base.Session(&gorm.Session{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("status <> ?", model.OrderStatusCancelled).
		Scan(&revenue).Error; err != nil {
		logger.Error("Failed to calculate revenue", err, nil)
		return nil, err
	}
	stats.TotalRevenue = revenue.Total

	return &stats, nil
}
