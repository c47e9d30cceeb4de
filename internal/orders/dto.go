package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/pkg/db/models"
	"github.com/shoplane/storefront-backend/pkg/enums"
)

// Actor identifies the caller of an order operation.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

func (a Actor) canAccess(order *models.Order) bool {
	return a.IsAdmin() || (a.UserID != uuid.Nil && order.UserID == a.UserID)
}

// ShippingDetails is the delivery contact and optional location captured at checkout.
type ShippingDetails struct {
	Name      string
	Phone     string
	Email     string
	Address   string
	City      string
	State     string
	Latitude  *float64
	Longitude *float64
	// ShippingFee is a quote the client obtained earlier. It is only used
	// when no coordinates are supplied.
	ShippingFee *decimal.Decimal
}

// PlaceOrderInput carries a checkout request for the user's current cart.
type PlaceOrderInput struct {
	UserID             uuid.UUID
	DeliveryMethod     enums.DeliveryMethod
	PaymentMethod      enums.PaymentMethod
	CouponCode         *string
	Shipping           *ShippingDetails
	PickupPointID      *int64
	FulfillmentPointID *int64
	Notes              *string
}

// CancelInput requests cancellation of an order by its owner or an admin.
type CancelInput struct {
	OrderID int64
	Actor   Actor
}

// RefundInput requests an admin refund of a paid order.
type RefundInput struct {
	OrderID int64
	Actor   Actor
}

// OrderItemDTO is the API view of an order line.
type OrderItemDTO struct {
	ID          int64           `json:"id"`
	ProductID   int64           `json:"product_id"`
	VariantID   *int64          `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	VariantName *string         `json:"variant_name,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	BasePrice   decimal.Decimal `json:"base_price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ShippingDTO is the API view of the shipping contact.
type ShippingDTO struct {
	Name      *string  `json:"name,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	Email     *string  `json:"email,omitempty"`
	Address   *string  `json:"address,omitempty"`
	City      *string  `json:"city,omitempty"`
	State     *string  `json:"state,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// OrderDTO is the API view of an order.
type OrderDTO struct {
	ID                 int64                    `json:"id"`
	OrderNumber        string                   `json:"order_number"`
	UserID             uuid.UUID                `json:"user_id"`
	Status             enums.OrderStatus        `json:"status"`
	PaymentStatus      enums.OrderPaymentStatus `json:"payment_status"`
	PaymentMethod      enums.PaymentMethod      `json:"payment_method"`
	PaymentReference   *string                  `json:"payment_reference,omitempty"`
	Currency           enums.Currency           `json:"currency"`
	Subtotal           decimal.Decimal          `json:"subtotal"`
	Discount           decimal.Decimal          `json:"discount"`
	Tax                decimal.Decimal          `json:"tax"`
	ShippingFee        decimal.Decimal          `json:"shipping_fee"`
	GrandTotal         decimal.Decimal          `json:"grand_total"`
	DeliveryMethod     enums.DeliveryMethod     `json:"delivery_method"`
	CouponCode         *string                  `json:"coupon_code,omitempty"`
	FulfillmentPointID *int64                   `json:"fulfillment_point_id,omitempty"`
	DeliveryDistanceKm *float64                 `json:"delivery_distance_km,omitempty"`
	Shipping           ShippingDTO              `json:"shipping"`
	Notes              *string                  `json:"notes,omitempty"`
	PaidAt             *time.Time               `json:"paid_at,omitempty"`
	CancelledAt        *time.Time               `json:"cancelled_at,omitempty"`
	RefundedAt         *time.Time               `json:"refunded_at,omitempty"`
	CreatedAt          time.Time                `json:"created_at"`
	Items              []OrderItemDTO           `json:"items"`
}

// NewOrderDTO maps a stored order to its API view.
func NewOrderDTO(order *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:          item.ID,
			ProductID:   item.ProductID,
			VariantID:   item.VariantID,
			ProductName: item.ProductName,
			VariantName: item.VariantName,
			UnitPrice:   item.UnitPrice,
			BasePrice:   item.BasePrice,
			Quantity:    item.Quantity,
			Subtotal:    item.Subtotal,
		})
	}
	return OrderDTO{
		ID:                 order.ID,
		OrderNumber:        order.OrderNumber,
		UserID:             order.UserID,
		Status:             order.Status,
		PaymentStatus:      order.PaymentStatus,
		PaymentMethod:      order.PaymentMethod,
		PaymentReference:   order.PaymentReference,
		Currency:           order.Currency,
		Subtotal:           order.Subtotal,
		Discount:           order.Discount,
		Tax:                order.Tax,
		ShippingFee:        order.ShippingFee,
		GrandTotal:         order.GrandTotal,
		DeliveryMethod:     order.DeliveryMethod,
		CouponCode:         order.CouponCode,
		FulfillmentPointID: order.FulfillmentPointID,
		DeliveryDistanceKm: order.DeliveryDistanceKm,
		Shipping: ShippingDTO{
			Name:      order.Shipping.Name,
			Phone:     order.Shipping.Phone,
			Email:     order.Shipping.Email,
			Address:   order.Shipping.Address,
			City:      order.Shipping.City,
			State:     order.Shipping.State,
			Latitude:  order.Shipping.Latitude,
			Longitude: order.Shipping.Longitude,
		},
		Notes:       order.Notes,
		PaidAt:      order.PaidAt,
		CancelledAt: order.CancelledAt,
		RefundedAt:  order.RefundedAt,
		CreatedAt:   order.CreatedAt,
		Items:       items,
	}
}
