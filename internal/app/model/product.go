package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Product struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Slug         string         `gorm:"uniqueIndex;not null" json:"slug"`
	Description  string         `gorm:"type:text" json:"description"`
	SellingPrice float64        `gorm:"not null" json:"selling_price"`
	CostPrice    float64        `gorm:"not null;default:0" json:"cost_price"`
	Stock        int            `gorm:"not null;default:0" json:"stock"`
	ImageURL     string         `json:"image_url"`
	Tags         pq.StringArray `gorm:"type:text" json:"tags"` // stored as a postgres array literal
	CategoryID   uint           `gorm:"not null;index" json:"category_id"`
	Published    bool           `gorm:"not null;default:false;index" json:"published"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// CategoryName returns the display name of the loaded category, if any.
func (p *Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}
