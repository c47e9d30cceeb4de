package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/api/middleware"
	"github.com/shoplane/storefront-backend/api/responses"
	"github.com/shoplane/storefront-backend/api/validators"
	internalorders "github.com/shoplane/storefront-backend/internal/orders"
	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/logger"
)

type placeOrderRequest struct {
	DeliveryMethod     enums.DeliveryMethod `json:"delivery_method" validate:"required,oneof=shipping pickup"`
	PaymentMethod      enums.PaymentMethod  `json:"payment_method" validate:"required,oneof=cash_on_delivery paystack flutterwave"`
	CouponCode         *string              `json:"coupon_code,omitempty" validate:"omitempty,max=64"`
	Shipping           *shippingRequest     `json:"shipping,omitempty" validate:"required_if=DeliveryMethod shipping"`
	PickupLocationID   *int64               `json:"pickup_location_id,omitempty" validate:"omitempty,gt=0"`
	FulfillmentPointID *int64               `json:"fulfillment_point_id,omitempty" validate:"omitempty,gt=0"`
	Notes              *string              `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// shippingRequest only checks shape; the service decides which fields a
// delivery method requires.
type shippingRequest struct {
	Name        string           `json:"name" validate:"max=200"`
	Phone       string           `json:"phone" validate:"max=32"`
	Email       string           `json:"email" validate:"omitempty,email"`
	Address     string           `json:"address" validate:"max=500"`
	City        string           `json:"city" validate:"max=120"`
	State       string           `json:"state" validate:"max=120"`
	Latitude    *float64         `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude   *float64         `json:"longitude,omitempty" validate:"omitempty,longitude"`
	ShippingFee *decimal.Decimal `json:"shipping_fee,omitempty" validate:"omitempty,gte=0"`
}

func (p placeOrderRequest) toInput(actor internalorders.Actor) internalorders.PlaceOrderInput {
	input := internalorders.PlaceOrderInput{
		UserID:             actor.UserID,
		DeliveryMethod:     p.DeliveryMethod,
		PaymentMethod:      p.PaymentMethod,
		CouponCode:         p.CouponCode,
		PickupPointID:      p.PickupLocationID,
		FulfillmentPointID: p.FulfillmentPointID,
		Notes:              p.Notes,
	}
	if p.Shipping != nil {
		input.Shipping = &internalorders.ShippingDetails{
			Name:        validators.SanitizeString(p.Shipping.Name, 200),
			Phone:       validators.SanitizeString(p.Shipping.Phone, 32),
			Email:       validators.SanitizeString(p.Shipping.Email, 254),
			Address:     validators.SanitizeString(p.Shipping.Address, 500),
			City:        validators.SanitizeString(p.Shipping.City, 120),
			State:       validators.SanitizeString(p.Shipping.State, 120),
			Latitude:    p.Shipping.Latitude,
			Longitude:   p.Shipping.Longitude,
			ShippingFee: p.Shipping.ShippingFee,
		}
	}
	return input
}

// PlaceOrder turns the caller's cart into an order.
func PlaceOrder(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), payload.toInput(actorFromRequest(r)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, internalorders.NewOrderDTO(order))
	}
}

// Get returns an order by numeric id or order number.
func Get(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		ref := strings.TrimSpace(chi.URLParam(r, "orderId"))
		order, err := svc.GetOrder(r.Context(), actorFromRequest(r), ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, internalorders.NewOrderDTO(order))
	}
}

// Cancel cancels a pending order and releases its stock.
func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.PathInt64(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelOrder(r.Context(), internalorders.CancelInput{OrderID: orderID, Actor: actorFromRequest(r)})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, internalorders.NewOrderDTO(order))
	}
}

// Refund marks a paid order refunded. Admin only.
func Refund(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := validators.PathInt64(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RefundOrder(r.Context(), internalorders.RefundInput{OrderID: orderID, Actor: actorFromRequest(r)})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, internalorders.NewOrderDTO(order))
	}
}

func actorFromRequest(r *http.Request) internalorders.Actor {
	return internalorders.Actor{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   middleware.RoleFromContext(r.Context()),
	}
}
