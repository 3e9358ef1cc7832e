package model

import (
	"math"
	"time"

	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Coupon struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Name          string         `gorm:"not null" json:"name"`
	Code          string         `gorm:"uniqueIndex;not null" json:"code"`
	ImageURL      string         `json:"image_url"`
	DiscountType  DiscountType   `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue float64        `gorm:"not null" json:"discount_value"`
	StartsAt      *time.Time     `json:"starts_at,omitempty"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
	Published     bool           `gorm:"not null;default:false" json:"published"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// ActiveAt reports whether the coupon can be redeemed at t.
func (c *Coupon) ActiveAt(t time.Time) bool {
	if !c.Published {
		return false
	}
	if c.StartsAt != nil && t.Before(*c.StartsAt) {
		return false
	}
	if c.ExpiresAt != nil && !t.Before(*c.ExpiresAt) {
		return false
	}
	return true
}

// Discount returns the amount taken off subtotal, never more than subtotal.
func (c *Coupon) Discount(subtotal float64) float64 {
	var d float64
	switch c.DiscountType {
	case DiscountPercentage:
		d = subtotal * c.DiscountValue / 100
	case DiscountFixed:
		d = c.DiscountValue
	}
	d = math.Round(d*100) / 100
	return math.Max(0, math.Min(d, subtotal))
}
