package flutterwave

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/gateway"
)

const (
	defaultBaseURL = "https://api.flutterwave.com/v3"
	defaultTimeout = 15 * time.Second

	SignatureHeader = "flutterwave-signature"
	// LegacyHashHeader carries the dashboard secret hash verbatim.
	LegacyHashHeader = "verif-hash"

	name = string(enums.PaymentGatewayFlutterwave)
)

var errSecretKeyRequired = errors.New("flutterwave secret key is required")

// Client talks to the Flutterwave v3 API. Amounts on the wire are major units.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	secretHash string
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

// WithTimeout bounds every outbound call. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d, Transport: c.httpClient.Transport}
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

// WithSecretHash sets the webhook secret hash configured on the dashboard.
func WithSecretHash(hash string) Option {
	return func(c *Client) {
		c.secretHash = strings.TrimSpace(hash)
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
	return enums.PaymentGatewayFlutterwave
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type transaction struct {
	ID       int64           `json:"id"`
	TxRef    string          `json:"tx_ref"`
	FlwRef   string          `json:"flw_ref"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
}

// Initialize creates a hosted payment link.
func (c *Client) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	if strings.TrimSpace(req.Customer.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if strings.TrimSpace(req.Reference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tx_ref is required")
	}
	amount := req.Amount.Value
	if req.Amount.IsExplicit() {
		major, err := req.Amount.ToMajor()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount")
		}
		amount = major
	}
	if !amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	body := map[string]any{
		"tx_ref":       req.Reference,
		"amount":       json.Number(amount.StringFixed(2)),
		"currency":     string(req.Currency),
		"redirect_url": req.CallbackURL,
		"customer": map[string]string{
			"email":       req.Customer.Email,
			"name":        req.Customer.Name,
			"phonenumber": req.Customer.Phone,
		},
		"meta": map[string]any{
			"order_id":     req.OrderID,
			"order_number": req.OrderNumber,
		},
	}

	var out envelope
	raw, err := c.do(ctx, http.MethodPost, "/payments", body, &out)
	if err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, gateway.Fail(name, "initialize rejected: "+out.Message, http.StatusOK, raw, nil)
	}
	var data struct {
		Link string `json:"link"`
	}
	if err := json.Unmarshal(out.Data, &data); err != nil || data.Link == "" {
		return nil, gateway.Fail(name, "initialize response missing link", http.StatusOK, raw, err)
	}
	return &gateway.InitializeResult{RedirectURL: data.Link, Reference: req.Reference}, nil
}

// Verify looks the transaction up by id when known, else by tx_ref.
func (c *Client) Verify(ctx context.Context, query gateway.VerifyQuery) (*gateway.VerifyResult, error) {
	var path string
	switch {
	case strings.TrimSpace(query.TransactionID) != "":
		path = "/transactions/" + url.PathEscape(strings.TrimSpace(query.TransactionID)) + "/verify"
	case strings.TrimSpace(query.Reference) != "":
		path = "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(strings.TrimSpace(query.Reference))
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference or transaction id is required")
	}

	var out envelope
	raw, err := c.do(ctx, http.MethodGet, path, nil, &out)
	if err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, gateway.Fail(name, "verify rejected: "+out.Message, http.StatusOK, raw, nil)
	}
	var tx transaction
	if err := json.Unmarshal(out.Data, &tx); err != nil || tx.TxRef == "" {
		return nil, gateway.Fail(name, "verify response missing transaction", http.StatusOK, raw, err)
	}
	return &gateway.VerifyResult{
		Success:       tx.Status == "successful",
		Status:        tx.Status,
		Reference:     tx.TxRef,
		TransactionID: formatID(tx.ID),
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		RawPayload:    string(raw),
	}, nil
}

// VerifySignature accepts either the base64 HMAC-SHA256 signature header or
// the legacy verif-hash header equal to the secret hash.
func (c *Client) VerifySignature(headers http.Header, body []byte) error {
	if c.secretHash == "" {
		return gateway.ErrInvalidSignature
	}
	if sig := strings.TrimSpace(headers.Get(SignatureHeader)); sig != "" {
		if hmac.Equal([]byte(sig), []byte(Sign(c.secretHash, body))) {
			return nil
		}
		return gateway.ErrInvalidSignature
	}
	if hash := strings.TrimSpace(headers.Get(LegacyHashHeader)); hash != "" {
		if hmac.Equal([]byte(hash), []byte(c.secretHash)) {
			return nil
		}
	}
	return gateway.ErrInvalidSignature
}

// Sign returns the flutterwave-signature value for body.
func Sign(secretHash string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secretHash))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// ParseWebhook decodes a charge.completed style event.
func (c *Client) ParseWebhook(body []byte) (*gateway.WebhookEvent, error) {
	var payload struct {
		Event     string      `json:"event"`
		EventType string      `json:"event.type"`
		Data      transaction `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid flutterwave webhook payload")
	}
	event := payload.Event
	if event == "" {
		event = payload.EventType
	}
	if event == "" || payload.Data.TxRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "flutterwave webhook missing event or tx_ref")
	}
	eventID := event + ":" + payload.Data.TxRef
	if payload.Data.ID != 0 {
		eventID = event + ":" + formatID(payload.Data.ID)
	}
	return &gateway.WebhookEvent{
		EventID:       eventID,
		Type:          event,
		Success:       payload.Data.Status == "successful",
		Reference:     payload.Data.TxRef,
		TransactionID: formatID(payload.Data.ID),
		Amount:        payload.Data.Amount,
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
