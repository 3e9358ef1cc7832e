package model

import (
	"time"

	"gorm.io/gorm"
)

type OrderStatus string
type PaymentMethod string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"

	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentCredit PaymentMethod = "credit"
)

// ValidOrderStatus reports whether s is a known status.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	InvoiceNo       string         `gorm:"uniqueIndex;not null" json:"invoice_no"`
	CustomerID      uint           `gorm:"not null;index" json:"customer_id"`
	CouponID        *uint          `gorm:"index" json:"coupon_id,omitempty"`
	OrderTime       time.Time      `gorm:"not null;index" json:"order_time"`
	Status          OrderStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentMethod   PaymentMethod  `gorm:"type:varchar(20);not null;default:'cash'" json:"payment_method"`
	ShippingName    string         `json:"shipping_name"`
	ShippingEmail   string         `json:"shipping_email"`
	ShippingPhone   string         `json:"shipping_phone"`
	ShippingCompany string         `json:"shipping_company,omitempty"`
	ShippingAddress string         `gorm:"type:text" json:"shipping_address"`
	Notes           string         `gorm:"type:text" json:"notes,omitempty"`
	Subtotal        float64        `gorm:"not null" json:"subtotal"`
	DiscountAmount  float64        `gorm:"not null;default:0" json:"discount_amount"`
	ShippingCost    float64        `gorm:"not null;default:0" json:"shipping_cost"`
	TotalAmount     float64        `gorm:"not null" json:"total_amount"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	Customer   *Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Coupon     *Coupon     `gorm:"foreignKey:CouponID" json:"coupon,omitempty"`
	OrderItems []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	OrderID     uint      `gorm:"not null;index" json:"order_id"`
	ProductID   uint      `gorm:"not null;index" json:"product_id"`
	ProductName string    `gorm:"not null" json:"product_name"` // snapshot at order time
	Quantity    int       `gorm:"not null" json:"quantity"`
	UnitPrice   float64   `gorm:"not null" json:"unit_price"`
	CreatedAt   time.Time `json:"created_at"`

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) LineTotal() float64 {
	return i.UnitPrice * float64(i.Quantity)
}
