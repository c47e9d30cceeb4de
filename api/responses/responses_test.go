package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/logger"
	"github.com/shoplane/storefront-backend/pkg/types"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body.Error
}

func TestWriteSuccessStatus(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"hello": "world"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "world", body.Data.(map[string]any)["hello"])
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	w.Header().Set(RequestIDHeader, "req-1")
	err := pkgerrors.New(pkgerrors.CodeBusinessRule, "minimum order is 2000.00").
		WithDetails(map[string]string{"subtotal": "too low"})
	WriteError(context.Background(), logger.Nop(), w, err)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	apiErr := decodeError(t, w)
	assert.Equal(t, string(pkgerrors.CodeBusinessRule), apiErr.Code)
	assert.Equal(t, "minimum order is 2000.00", apiErr.Message)
	assert.Equal(t, "req-1", apiErr.RequestID)
	assert.NotNil(t, apiErr.Details)
}

func TestWriteErrorHidesInternalMessages(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{name: "untyped", err: errors.New("pq: relation missing"), status: http.StatusInternalServerError, msg: "internal server error"},
		{name: "gateway", err: pkgerrors.New(pkgerrors.CodeGateway, "paystack: secret sk_live rejected"), status: http.StatusInternalServerError, msg: "payment gateway error"},
		{name: "configuration", err: pkgerrors.New(pkgerrors.CodeConfiguration, "flutterwave key missing"), status: http.StatusInternalServerError, msg: "service misconfigured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(context.Background(), nil, w, tt.err)
			assert.Equal(t, tt.status, w.Code)
			apiErr := decodeError(t, w)
			assert.Equal(t, tt.msg, apiErr.Message)
			assert.Nil(t, apiErr.Details)
		})
	}
}

func TestWriteErrorDebugDump(t *testing.T) {
	SetDebugErrors(true)
	t.Cleanup(func() { SetDebugErrors(false) })

	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, pkgerrors.Wrap(pkgerrors.CodeInternal, errors.New("boom"), "load"))
	apiErr := decodeError(t, w)
	dump, ok := apiErr.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INTERNAL_ERROR: load", dump["top_message"])
	assert.Equal(t, "boom", dump["root_cause"])
	chain, ok := dump["chain"].([]any)
	require.True(t, ok)
	require.Len(t, chain, 2)
	assert.Contains(t, chain[1], "boom")
}

func TestRedirect(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/v1/payments/callback", nil)
	Redirect(w, r, "https://shop.test/checkout/success?order=ORD-1")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://shop.test/checkout/success?order=ORD-1", w.Header().Get("Location"))
}
