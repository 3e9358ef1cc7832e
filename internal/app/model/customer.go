package model

import (
	"time"

	"gorm.io/gorm"
)

// Customer holds the business profile of a storefront shopper.
type Customer struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	UserID      *uint          `gorm:"uniqueIndex" json:"user_id,omitempty"` // nil for customers created by staff
	Name        string         `gorm:"not null" json:"name"`
	Email       string         `gorm:"index" json:"email"`
	Phone       string         `json:"phone"`
	Address     string         `gorm:"type:text" json:"address"`
	StoreName   string         `json:"store_name"`
	EIN         string         `gorm:"column:ein" json:"ein"` // employer identification number
	AgeVerified bool           `gorm:"not null;default:false" json:"age_verified"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Customer) TableName() string {
	return "customers"
}
