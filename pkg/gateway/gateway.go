// Package gateway holds the types shared by the payment gateway adapters.
// Each adapter normalizes its provider's responses and failures into these
// types so provider-specific shapes never leak past the adapter.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/pkg/enums"
	"github.com/shoplane/storefront-backend/pkg/money"
)

// ErrInvalidSignature is returned when a webhook signature does not verify.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Customer is the payer contact forwarded to the gateway.
type Customer struct {
	Email string
	Name  string
	Phone string
}

type InitializeRequest struct {
	OrderID     int64
	OrderNumber string
	Reference   string
	Amount      money.Amount
	Currency    enums.Currency
	Customer    Customer
	CallbackURL string
}

type InitializeResult struct {
	RedirectURL string
	Reference   string
	AccessCode  string
}

// VerifyQuery identifies a remote transaction. TransactionID wins when both are set
// and the gateway supports lookup by id.
type VerifyQuery struct {
	Reference     string
	TransactionID string
}

// VerifyResult is the normalized verification outcome. Amount is in major units.
type VerifyResult struct {
	Success       bool
	Status        string
	Reference     string
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	RawPayload    string
}

// WebhookEvent is a normalized, signature-verified gateway notification.
type WebhookEvent struct {
	EventID       string
	Type          string
	Success       bool
	Reference     string
	TransactionID string
	Amount        decimal.Decimal
	Currency      string
	RawPayload    string
}

// Client is implemented once per supported gateway.
type Client interface {
	Name() enums.PaymentGateway
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, query VerifyQuery) (*VerifyResult, error)
	VerifySignature(headers http.Header, body []byte) error
	ParseWebhook(body []byte) (*WebhookEvent, error)
}

// NewReference builds PREFIX-timestampMillis-orderId.
func NewReference(prefix string, now time.Time, orderID int64) string {
	return fmt.Sprintf("%s-%d-%d", prefix, now.UnixMilli(), orderID)
}
