package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/pkg/types"
)

// FulfillmentPoint is a store location orders ship from or are picked up at.
// Nil fee settings fall back to the global delivery policy.
type FulfillmentPoint struct {
	ID                    int64               `gorm:"column:id;primaryKey;autoIncrement"`
	Name                  string              `gorm:"column:name;not null"`
	Address               string              `gorm:"column:address;not null"`
	Latitude              float64             `gorm:"column:latitude;not null"`
	Longitude             float64             `gorm:"column:longitude;not null"`
	IsActive              bool                `gorm:"column:is_active;not null"`
	SupportsPickup        bool                `gorm:"column:supports_pickup;not null"`
	SupportsDelivery      bool                `gorm:"column:supports_delivery;not null"`
	BaseFee               decimal.NullDecimal `gorm:"column:base_fee;type:numeric(14,2)"`
	PerKmFee              decimal.NullDecimal `gorm:"column:per_km_fee;type:numeric(14,2)"`
	FreeDeliveryThreshold decimal.NullDecimal `gorm:"column:free_delivery_threshold;type:numeric(14,2)"`
	MinimumOrder          decimal.NullDecimal `gorm:"column:minimum_order;type:numeric(14,2)"`
	Geofence              types.Geofence      `gorm:"column:geofence;type:text"`
	CreatedAt             time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p FulfillmentPoint) Coordinate() types.Coordinate {
	return types.Coordinate{Lat: p.Latitude, Lng: p.Longitude}
}
