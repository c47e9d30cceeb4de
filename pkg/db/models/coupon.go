package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/pkg/enums"
)

// Coupon codes are stored upper-cased.
type Coupon struct {
	ID             int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Code           string              `gorm:"column:code;not null;uniqueIndex"`
	DiscountType   enums.DiscountType  `gorm:"column:discount_type;type:text;not null"`
	Value          decimal.Decimal     `gorm:"column:value;type:numeric(14,2);not null"`
	MinOrderAmount decimal.NullDecimal `gorm:"column:min_order_amount;type:numeric(14,2)"`
	MaxDiscount    decimal.NullDecimal `gorm:"column:max_discount;type:numeric(14,2)"`
	StartsAt       *time.Time          `gorm:"column:starts_at"`
	ExpiresAt      *time.Time          `gorm:"column:expires_at"`
	UsageLimit     *int                `gorm:"column:usage_limit"`
	PerUserLimit   *int                `gorm:"column:per_user_limit"`
	UsedCount      int                 `gorm:"column:used_count;not null"`
	IsActive       bool                `gorm:"column:is_active;not null"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
