package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is owned by the catalog; checkout reads it and adjusts Stock.
type Product struct {
	ID        int64            `gorm:"column:id;primaryKey;autoIncrement"`
	Name      string           `gorm:"column:name;not null"`
	Price     decimal.Decimal  `gorm:"column:price;type:numeric(14,2);not null"`
	BasePrice decimal.Decimal  `gorm:"column:base_price;type:numeric(14,2);not null"`
	Stock     int              `gorm:"column:stock;not null"`
	IsActive  bool             `gorm:"column:is_active;not null"`
	Variants  []ProductVariant `gorm:"foreignKey:ProductID"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant carries its own stock and a price adjustment over the product price.
type ProductVariant struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement"`
	ProductID       int64           `gorm:"column:product_id;not null;index"`
	Name            string          `gorm:"column:name;not null"`
	PriceAdjustment decimal.Decimal `gorm:"column:price_adjustment;type:numeric(14,2);not null"`
	Stock           int             `gorm:"column:stock;not null"`
	IsActive        bool            `gorm:"column:is_active;not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
