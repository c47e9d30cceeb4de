package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/pkg/enums"
)

// Order is a checkout transaction. Rows are never deleted; status only moves
// forward through cancel, refund or payment reconciliation.
type Order struct {
	ID                 int64                    `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber        string                   `gorm:"column:order_number;not null;uniqueIndex"`
	UserID             uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	Status             enums.OrderStatus        `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus      enums.OrderPaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	PaymentMethod      enums.PaymentMethod      `gorm:"column:payment_method;type:text;not null"`
	PaymentReference   *string                  `gorm:"column:payment_reference;index"`
	Currency           enums.Currency           `gorm:"column:currency;type:text;not null"`
	Subtotal           decimal.Decimal          `gorm:"column:subtotal;type:numeric(14,2);not null"`
	Discount           decimal.Decimal          `gorm:"column:discount;type:numeric(14,2);not null"`
	Tax                decimal.Decimal          `gorm:"column:tax;type:numeric(14,2);not null"`
	ShippingFee        decimal.Decimal          `gorm:"column:shipping_fee;type:numeric(14,2);not null"`
	GrandTotal         decimal.Decimal          `gorm:"column:grand_total;type:numeric(14,2);not null"`
	DeliveryMethod     enums.DeliveryMethod     `gorm:"column:delivery_method;type:text;not null"`
	CouponID           *int64                   `gorm:"column:coupon_id"`
	CouponCode         *string                  `gorm:"column:coupon_code"`
	FulfillmentPointID *int64                   `gorm:"column:fulfillment_point_id"`
	Shipping           ShippingContact          `gorm:"embedded;embeddedPrefix:shipping_"`
	DeliveryDistanceKm *float64                 `gorm:"column:delivery_distance_km"`
	Notes              *string                  `gorm:"column:notes"`
	PaidAt             *time.Time               `gorm:"column:paid_at"`
	CancelledAt        *time.Time               `gorm:"column:cancelled_at"`
	RefundedAt         *time.Time               `gorm:"column:refunded_at"`
	Items              []OrderItem              `gorm:"foreignKey:OrderID"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

// ShippingContact is the delivery recipient captured at checkout.
type ShippingContact struct {
	Name      *string  `gorm:"column:name"`
	Phone     *string  `gorm:"column:phone"`
	Email     *string  `gorm:"column:email"`
	Address   *string  `gorm:"column:address"`
	City      *string  `gorm:"column:city"`
	State     *string  `gorm:"column:state"`
	Latitude  *float64 `gorm:"column:latitude"`
	Longitude *float64 `gorm:"column:longitude"`
}

// ComputedGrandTotal derives the total from the stored components.
func (o Order) ComputedGrandTotal() decimal.Decimal {
	return o.Subtotal.Add(o.Tax).Add(o.ShippingFee).Sub(o.Discount)
}
