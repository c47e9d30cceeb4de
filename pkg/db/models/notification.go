package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shoplane/storefront-backend/pkg/enums"
)

// Notification stores in-app notifications addressed to a customer.
type Notification struct {
	ID        int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    uuid.UUID              `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID   *int64                 `gorm:"column:order_id"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
