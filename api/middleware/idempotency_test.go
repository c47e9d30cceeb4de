package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplane/storefront-backend/pkg/enums"
	"github.com/shoplane/storefront-backend/pkg/redis"
)

type countingHandler struct {
	calls  int
	status int
}

func (h *countingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.calls++
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(h.status)
	_, _ = w.Write([]byte(`{"data":{"order_number":"ORD-1"}}`))
}

func idempotentRequest(userID uuid.UUID, key, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req.WithContext(WithActor(req.Context(), userID, enums.UserRoleCustomer))
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)
	user := uuid.New()

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, idempotentRequest(user, "k1", `{"payment_method":"paystack"}`))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, idempotentRequest(user, "k1", `{"payment_method":"paystack"}`))
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, next.calls)

	other := httptest.NewRecorder()
	handler.ServeHTTP(other, idempotentRequest(uuid.New(), "k1", `{"payment_method":"paystack"}`))
	assert.Equal(t, 2, next.calls, "keys are scoped per user")
}

func TestIdempotencyRejectsReusedKeyWithDifferentBody(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)
	user := uuid.New()

	handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest(user, "k1", `{"a":1}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest(user, "k1", `{"a":2}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "IDEMPOTENCY_KEY_REUSED")
}

func TestIdempotencyRequiresKey(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest(uuid.New(), "", `{}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, next.calls)
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	next := &countingHandler{status: http.StatusServiceUnavailable}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)
	user := uuid.New()

	handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest(user, "k1", `{}`))
	handler.ServeHTTP(httptest.NewRecorder(), idempotentRequest(user, "k1", `{}`))
	assert.Equal(t, 2, next.calls)
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	user := uuid.New()
	var (
		handler http.Handler
		nested  *httptest.ResponseRecorder
		calls   int
	)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if nested == nil {
			nested = httptest.NewRecorder()
			handler.ServeHTTP(nested, idempotentRequest(user, "k1", `{}`))
		}
		w.WriteHeader(http.StatusCreated)
	})
	handler = Idempotency(redis.NewMemory(), time.Hour, nil)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest(user, "k1", `{}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusConflict, nested.Code)
	assert.Equal(t, 1, calls)
}

func TestIdempotencySkipsReads(t *testing.T) {
	next := &countingHandler{status: http.StatusOK}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders/7", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, next.calls)
}

func TestIdempotencyReleasesKeyWhenHandlerPanics(t *testing.T) {
	store := redis.NewMemory()
	user := uuid.New()

	panicking := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	assert.Panics(t, func() {
		panicking.ServeHTTP(httptest.NewRecorder(), idempotentRequest(user, "k1", `{}`))
	})

	next := &countingHandler{status: http.StatusCreated}
	rec := httptest.NewRecorder()
	Idempotency(store, time.Hour, nil)(next).ServeHTTP(rec, idempotentRequest(user, "k1", `{}`))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, next.calls)
}

func TestIdempotencyRejectsOversizedBody(t *testing.T) {
	next := &countingHandler{status: http.StatusCreated}
	handler := Idempotency(redis.NewMemory(), time.Hour, nil)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest(uuid.New(), "k1", strings.Repeat("x", maxIdempotentBody+1)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, next.calls)
}
