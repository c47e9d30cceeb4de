package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/pkg/enums"
)

// Payment is one gateway attempt for an order. At most one row per order
// reaches completed.
type Payment struct {
	ID                   int64                   `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID              int64                   `gorm:"column:order_id;not null;index"`
	Gateway              enums.PaymentGateway    `gorm:"column:gateway;type:text;not null"`
	Reference            string                  `gorm:"column:reference;not null;uniqueIndex"`
	GatewayTransactionID *string                 `gorm:"column:gateway_transaction_id;index"`
	AccessCode           *string                 `gorm:"column:access_code"`
	Amount               decimal.Decimal         `gorm:"column:amount;type:numeric(14,2);not null"`
	Currency             enums.Currency          `gorm:"column:currency;type:text;not null"`
	Status               enums.PaymentStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	RawPayload           *string                 `gorm:"column:raw_payload;type:text"`
	Channel              *enums.ReconcileChannel `gorm:"column:channel;type:text"`
	CompletedAt          *time.Time              `gorm:"column:completed_at"`
	CreatedAt            time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
