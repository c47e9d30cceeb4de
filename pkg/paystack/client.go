package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/gateway"
)

const (
	defaultBaseURL  = "https://api.paystack.co"
	defaultTimeout  = 15 * time.Second
	SignatureHeader = "x-paystack-signature"

	name = string(enums.PaymentGatewayPaystack)
)

var errSecretKeyRequired = errors.New("paystack secret key is required")

// Client talks to the Paystack transaction API. Amounts on the wire are kobo.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithTimeout bounds every outbound call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
		}
	}
}

func NewClient(secretKey string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(secretKey)
	if trimmed == "" {
		return nil, errSecretKeyRequired
	}
	client := &Client{
		secretKey:  trimmed,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

func (c *Client) Name() enums.PaymentGateway {
	return enums.PaymentGatewayPaystack
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type transaction struct {
	ID              int64  `json:"id"`
	Status          string `json:"status"`
	Reference       string `json:"reference"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
}

// Initialize opens a hosted checkout session.
func (c *Client) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	if strings.TrimSpace(req.Customer.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	kobo, err := minorFor(req.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
	}
	if kobo <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	body := map[string]any{
		"email":     req.Customer.Email,
		"amount":    kobo,
		"reference": req.Reference,
		"currency":  string(req.Currency),
		"metadata": map[string]any{
			"order_id":     req.OrderID,
			"order_number": req.OrderNumber,
			"customer":     req.Customer.Name,
		},
	}
	if req.CallbackURL != "" {
		body["callback_url"] = req.CallbackURL
	}

	var out envelope
	raw, err := c.do(ctx, http.MethodPost, "/transaction/initialize", body, &out)
	if err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, gateway.Fail(name, "initialize rejected: "+out.Message, http.StatusOK, raw, nil)
	}

	var data struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(out.Data, &data); err != nil || data.AuthorizationURL == "" {
		return nil, gateway.Fail(name, "initialize response missing authorization_url", http.StatusOK, raw, err)
	}
	reference := data.Reference
	if reference == "" {
		reference = req.Reference
	}
	return &gateway.InitializeResult{
		RedirectURL: data.AuthorizationURL,
		Reference:   reference,
		AccessCode:  data.AccessCode,
	}, nil
}

// Verify fetches the transaction by reference, or by numeric id when no
// reference is known.
func (c *Client) Verify(ctx context.Context, query gateway.VerifyQuery) (*gateway.VerifyResult, error) {
	var path string
	switch {
	case strings.TrimSpace(query.Reference) != "":
		path = "/transaction/verify/" + url.PathEscape(strings.TrimSpace(query.Reference))
	case strings.TrimSpace(query.TransactionID) != "":
		path = "/transaction/" + url.PathEscape(strings.TrimSpace(query.TransactionID))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference or transaction id is required")
	}

	var out envelope
	raw, err := c.do(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, gateway.Fail(name, "verify rejected: "+out.Message, http.StatusOK, raw, nil)
	}

	var tx transaction
	if err := json.Unmarshal(out.Data, &tx); err != nil || tx.Reference == "" {
		return nil, gateway.Fail(name, "verify response missing transaction", http.StatusOK, raw, err)
	}
	return &gateway.VerifyResult{
		Success:       tx.Status == "success",
		Status:        tx.Status,
		Reference:     tx.Reference,
		TransactionID: formatID(tx.ID),
		Amount:        fromMinor(tx.Amount),
		Currency:      tx.Currency,
		RawPayload:    string(raw),
	}, nil
}

// VerifySignature checks the hex HMAC-SHA512 of the raw body keyed by the secret key.
func (c *Client) VerifySignature(headers http.Header, body []byte) error {
	provided := strings.TrimSpace(headers.Get(SignatureHeader))
	if provided == "" {
		return gateway.ErrInvalidSignature
	}
	expected := Sign(c.secretKey, body)
	if !hmac.Equal([]byte(strings.ToLower(provided)), []byte(expected)) {
		return gateway.ErrInvalidSignature
	}
	return nil
}

// Sign returns the signature Paystack sends for body.
func Sign(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseWebhook decodes a charge event.
func (c *Client) ParseWebhook(body []byte) (*gateway.WebhookEvent, error) {
	var payload struct {
		Event string      `json:"event"`
		Data  transaction `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid paystack webhook payload")
	}
	if payload.Event == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paystack webhook missing event")
	}
	eventID := payload.Event + ":" + payload.Data.Reference
	if payload.Data.ID != 0 {
		eventID = payload.Event + ":" + formatID(payload.Data.ID)
	}
	return &gateway.WebhookEvent{
		EventID:       eventID,
		Type:          payload.Event,
		Success:       payload.Event == "charge.success" && payload.Data.Status == "success",
		Reference:     payload.Data.Reference,
		TransactionID: formatID(payload.Data.ID),
		Amount:        fromMinor(payload.Data.Amount),
		Currency:      payload.Data.Currency,
		RawPayload:    string(body),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) ([]byte, error) {
	reader := bytes.NewReader(nil)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, gateway.Fail(name, "encode request", 0, nil, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, gateway.Fail(name, "build request", 0, nil, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return gateway.DoJSON(c.httpClient, name, req, out)
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

var _ gateway.Client = (*Client)(nil)
