package model

import "time"

// CartSnapshot is the durable copy of one client's cart, keyed like the
// Redis entry it replaces when Redis is not configured.
type CartSnapshot struct {
	Key       string    `gorm:"column:cart_key;primaryKey;size:128" json:"key"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
