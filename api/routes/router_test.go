package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldelivery "github.com/shoplane/storefront-backend/internal/delivery"
	"github.com/shoplane/storefront-backend/internal/fulfillment"
	"github.com/shoplane/storefront-backend/internal/orders"
	"github.com/shoplane/storefront-backend/internal/payments"
	"github.com/shoplane/storefront-backend/pkg/auth"
	"github.com/shoplane/storefront-backend/pkg/config"
	"github.com/shoplane/storefront-backend/pkg/db/models"
	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/logger"
	"github.com/shoplane/storefront-backend/pkg/metrics"
	"github.com/shoplane/storefront-backend/pkg/redis"
	"github.com/shoplane/storefront-backend/pkg/types"
)

type stubQuoter struct{}

func (stubQuoter) Quote(context.Context, internaldelivery.QuoteInput) (*internaldelivery.Quote, error) {
	return &internaldelivery.Quote{Fee: decimal.NewFromInt(500), IsAvailable: true, Message: "delivery available"}, nil
}

type stubFulfillment struct{}

func (stubFulfillment) Nearby(context.Context, types.Coordinate, float64, int) ([]fulfillment.NearbyPoint, error) {
	return nil, nil
}

type stubOrders struct {
	placed atomic.Int32
}

func (s *stubOrders) PlaceOrder(_ context.Context, input orders.PlaceOrderInput) (*models.Order, error) {
	n := s.placed.Add(1)
	return &models.Order{ID: int64(n), UserID: input.UserID, OrderNumber: "ORD-1", Status: enums.OrderStatusPending}, nil
}

func (s *stubOrders) CancelOrder(_ context.Context, input orders.CancelInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, Status: enums.OrderStatusCancelled}, nil
}

func (s *stubOrders) RefundOrder(_ context.Context, input orders.RefundInput) (*models.Order, error) {
	return &models.Order{ID: input.OrderID, Status: enums.OrderStatusRefunded}, nil
}

func (s *stubOrders) GetOrder(_ context.Context, _ orders.Actor, ref string) (*models.Order, error) {
	return &models.Order{ID: 7, OrderNumber: ref}, nil
}

type stubPayments struct{}

func (stubPayments) Initialize(_ context.Context, input payments.InitializeInput) (*payments.InitializeResult, error) {
	return &payments.InitializeResult{OrderID: input.OrderID, RedirectURL: "https://checkout.paystack.com/x"}, nil
}

func (stubPayments) Verify(context.Context, payments.VerifyInput) (*payments.Outcome, error) {
	return &payments.Outcome{Success: false, GatewayStatus: "abandoned"}, nil
}

func (stubPayments) Callback(context.Context, payments.CallbackInput) string {
	return "https://shop.test/checkout/error"
}

func (stubPayments) HandleWebhook(_ context.Context, input payments.WebhookInput) (*payments.WebhookOutcome, error) {
	if input.Headers.Get("x-paystack-signature") == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature missing")
	}
	return &payments.WebhookOutcome{EventID: "charge.success:1"}, nil
}

func (stubPayments) Status(_ context.Context, _ orders.Actor, orderID int64) (*payments.StatusResult, error) {
	return &payments.StatusResult{OrderID: orderID}, nil
}

type testServer struct {
	handler http.Handler
	cfg     *config.Config
	orders  *stubOrders
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"https://shop.test"}},
		JWT: config.JWTConfig{Secret: "router-secret", Issuer: "storefront", ExpirationMinutes: 60},
		RateLimit: config.RateLimitConfig{
			Window:       time.Minute,
			QuoteLimit:   2,
			VerifyLimit:  5,
			WebhookLimit: 100,
		},
	}
	reg := prometheus.NewRegistry()
	metrics.NewCheckout(reg).IncOrderPlaced("paystack")

	ordersSvc := &stubOrders{}
	handler := NewRouter(cfg, logger.Nop(), nil, redis.NewMemory(), reg, stubQuoter{}, stubFulfillment{}, ordersSvc, stubPayments{})
	return &testServer{handler: handler, cfg: cfg, orders: ordersSvc}
}

func (s *testServer) token(t *testing.T, role enums.UserRole) string {
	t.Helper()
	token, err := auth.MintAccessToken(s.cfg.JWT, time.Now(), auth.AccessTokenPayload{UserID: uuid.New(), Email: "ada@shop.test", Role: role})
	require.NoError(t, err)
	return token
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"skipped"`)

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orders_placed_total")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/orders/7"},
		{http.MethodPost, "/api/v1/orders/7/cancel"},
		{http.MethodPost, "/api/v1/payments/initialize"},
		{http.MethodGet, "/api/v1/payments/7/status"},
	} {
		rec := srv.do(httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRefundRequiresAdmin(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/7/refund", nil)
	req.Header.Set("Authorization", "Bearer "+srv.token(t, enums.UserRoleCustomer))
	req.Header.Set("Idempotency-Key", "refund-1")
	assert.Equal(t, http.StatusForbidden, srv.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/orders/7/refund", nil)
	req.Header.Set("Authorization", "Bearer "+srv.token(t, enums.UserRoleAdmin))
	req.Header.Set("Idempotency-Key", "refund-1")
	rec := srv.do(req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"refunded"`)
}

func TestPlaceOrderIsIdempotent(t *testing.T) {
	srv := newTestServer(t)
	token := srv.token(t, enums.UserRoleCustomer)
	body := `{"delivery_method":"pickup","payment_method":"cash_on_delivery","pickup_location_id":1}`

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "place-1")
		return srv.do(req)
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := send()
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), srv.orders.placed.Load())
}

func TestPublicPaymentRoutes(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/payments/callback?reference=PSK-1&status=cancelled", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://shop.test/checkout/error", rec.Header().Get("Location"))

	rec = srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(`{"reference":"PSK-1"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook/paystack", strings.NewReader(`{}`))
	req.Header.Set("x-paystack-signature", "sig")
	rec = srv.do(req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQuoteIsRateLimited(t *testing.T) {
	srv := newTestServer(t)
	body := `{"latitude":6.45,"longitude":3.47,"subtotal":"1000"}`

	for i := 0; i < srv.cfg.RateLimit.QuoteLimit; i++ {
		rec := srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/delivery-fee/quote", strings.NewReader(body)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/delivery-fee/quote", strings.NewReader(body)))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/fulfillment-points/nearby?lat=6.45&lng=3.47", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "https://shop.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := srv.do(req)
	assert.Equal(t, "https://shop.test", rec.Header().Get("Access-Control-Allow-Origin"))
}
