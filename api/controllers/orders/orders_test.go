package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplane/storefront-backend/api/middleware"
	internalorders "github.com/shoplane/storefront-backend/internal/orders"
	"github.com/shoplane/storefront-backend/pkg/db/models"
	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
)

type stubOrdersService struct {
	placed    *internalorders.PlaceOrderInput
	cancelled *internalorders.CancelInput
	refunded  *internalorders.RefundInput
	getRef    string
	getActor  internalorders.Actor
	err       error
}

func (s *stubOrdersService) PlaceOrder(_ context.Context, input internalorders.PlaceOrderInput) (*models.Order, error) {
	s.placed = &input
	if s.err != nil {
		return nil, s.err
	}
	return sampleOrder(), nil
}

func (s *stubOrdersService) CancelOrder(_ context.Context, input internalorders.CancelInput) (*models.Order, error) {
	s.cancelled = &input
	if s.err != nil {
		return nil, s.err
	}
	order := sampleOrder()
	order.Status = enums.OrderStatusCancelled
	return order, nil
}

func (s *stubOrdersService) RefundOrder(_ context.Context, input internalorders.RefundInput) (*models.Order, error) {
	s.refunded = &input
	if s.err != nil {
		return nil, s.err
	}
	order := sampleOrder()
	order.Status = enums.OrderStatusRefunded
	return order, nil
}

func (s *stubOrdersService) GetOrder(_ context.Context, actor internalorders.Actor, ref string) (*models.Order, error) {
	s.getRef = ref
	s.getActor = actor
	if s.err != nil {
		return nil, s.err
	}
	return sampleOrder(), nil
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:             7,
		OrderNumber:    "ORD-20250301-ABC123",
		Status:         enums.OrderStatusPending,
		PaymentStatus:  enums.OrderPaymentStatusPending,
		PaymentMethod:  enums.PaymentMethodPaystack,
		Currency:       enums.CurrencyNGN,
		Subtotal:       decimal.NewFromInt(4800),
		Discount:       decimal.NewFromInt(480),
		Tax:            decimal.NewFromInt(384),
		ShippingFee:    decimal.NewFromInt(500),
		GrandTotal:     decimal.NewFromInt(5204),
		DeliveryMethod: enums.DeliveryMethodShipping,
	}
}

func newRouter(svc internalorders.Service, userID uuid.UUID, role enums.UserRole) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithActor(req.Context(), userID, role)))
		})
	})
	r.Post("/orders", PlaceOrder(svc, nil))
	r.Get("/orders/{orderId}", Get(svc, nil))
	r.Post("/orders/{orderId}/cancel", Cancel(svc, nil))
	r.Post("/orders/{orderId}/refund", Refund(svc, nil))
	return r
}

func TestPlaceOrderMapsRequest(t *testing.T) {
	svc := &stubOrdersService{}
	user := uuid.New()
	body := `{
		"delivery_method": "shipping",
		"payment_method": "paystack",
		"coupon_code": "SAVE10",
		"shipping": {"name": " Ada ", "phone": "0800", "address": "1 Marina", "latitude": 6.5, "longitude": 3.4, "shipping_fee": "750"}
	}`

	rec := httptest.NewRecorder()
	newRouter(svc, user, enums.UserRoleCustomer).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, svc.placed)
	assert.Equal(t, user, svc.placed.UserID)
	assert.Equal(t, enums.PaymentMethodPaystack, svc.placed.PaymentMethod)
	assert.Equal(t, "SAVE10", *svc.placed.CouponCode)
	assert.Equal(t, "Ada", svc.placed.Shipping.Name)
	assert.InDelta(t, 6.5, *svc.placed.Shipping.Latitude, 1e-9)
	assert.True(t, svc.placed.Shipping.ShippingFee.Equal(decimal.NewFromInt(750)))

	var resp struct {
		Data internalorders.OrderDTO `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ORD-20250301-ABC123", resp.Data.OrderNumber)
	assert.True(t, resp.Data.GrandTotal.Equal(decimal.NewFromInt(5204)))
}

func TestPlaceOrderValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "unknown payment method", body: `{"delivery_method":"shipping","payment_method":"card","shipping":{}}`, field: "payment_method"},
		{name: "shipping missing", body: `{"delivery_method":"shipping","payment_method":"paystack"}`, field: "shipping"},
		{name: "bad latitude", body: `{"delivery_method":"shipping","payment_method":"paystack","shipping":{"latitude":120,"longitude":3}}`, field: "latitude"},
		{name: "negative fee", body: `{"delivery_method":"shipping","payment_method":"paystack","shipping":{"shipping_fee":"-1"}}`, field: "shipping_fee"},
		{name: "unknown field", body: `{"delivery_method":"pickup","payment_method":"paystack","tip":5}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubOrdersService{}
			rec := httptest.NewRecorder()
			newRouter(svc, uuid.New(), enums.UserRoleCustomer).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tt.body)))

			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
			if tt.field != "" {
				assert.Contains(t, rec.Body.String(), tt.field)
			}
			assert.Nil(t, svc.placed)
		})
	}
}

func TestPlaceOrderPassesServiceErrors(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeBusinessRule, "Ankara tote only has 1 left")}
	rec := httptest.NewRecorder()
	body := `{"delivery_method":"pickup","payment_method":"cash_on_delivery","pickup_location_id":3}`
	newRouter(svc, uuid.New(), enums.UserRoleCustomer).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "only has 1 left")
	assert.Equal(t, int64(3), *svc.placed.PickupPointID)
}

func TestGetCancelRefund(t *testing.T) {
	svc := &stubOrdersService{}
	admin := uuid.New()
	router := newRouter(svc, admin, enums.UserRoleAdmin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/ORD-20250301-ABC123", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ORD-20250301-ABC123", svc.getRef)
	assert.True(t, svc.getActor.IsAdmin())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/7/cancel", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), svc.cancelled.OrderID)
	assert.Contains(t, rec.Body.String(), `"status":"cancelled"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/7/refund", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, admin, svc.refunded.Actor.UserID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/abc/cancel", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCancelStateConflict(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order is processing and cannot be cancelled")}
	rec := httptest.NewRecorder()
	newRouter(svc, uuid.New(), enums.UserRoleCustomer).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/7/cancel", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "STATE_CONFLICT")
}
