package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a pending cart line owned by the cart service.
type CartItem struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	ProductID int64     `gorm:"column:product_id;not null"`
	VariantID *int64    `gorm:"column:variant_id"`
	Quantity  int       `gorm:"column:quantity;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
