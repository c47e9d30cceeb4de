package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/shoplane/storefront-backend/internal/orders"
	"github.com/shoplane/storefront-backend/pkg/clock"
	"github.com/shoplane/storefront-backend/pkg/config"
	"github.com/shoplane/storefront-backend/pkg/db"
	"github.com/shoplane/storefront-backend/pkg/db/models"
	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/gateway"
	"github.com/shoplane/storefront-backend/pkg/logger"
	"github.com/shoplane/storefront-backend/pkg/money"
	"github.com/shoplane/storefront-backend/pkg/paystack"
)

// Service is the payment surface used by the HTTP layer.
type Service interface {
	Initialize(ctx context.Context, input InitializeInput) (*InitializeResult, error)
	Verify(ctx context.Context, input VerifyInput) (*Outcome, error)
	Callback(ctx context.Context, input CallbackInput) string
	HandleWebhook(ctx context.Context, input WebhookInput) (*WebhookOutcome, error)
	Status(ctx context.Context, actor orders.Actor, orderID int64) (*StatusResult, error)
}

// webhookGuard de-duplicates webhook deliveries by event id.
type webhookGuard interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	WebhookKey(gateway, eventID string) string
	Del(ctx context.Context, keys ...string) error
}

// Settings are the payment routing constants.
type Settings struct {
	CallbackURL        string
	SuccessRedirectURL string
	FailureRedirectURL string
	PaystackPrefix     string
	FlutterwavePrefix  string
	WebhookTTL         time.Duration
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		CallbackURL:        cfg.Payments.CallbackURL,
		SuccessRedirectURL: cfg.Payments.SuccessRedirectURL,
		FailureRedirectURL: cfg.Payments.FailureRedirectURL,
		PaystackPrefix:     cfg.Payments.PaystackPrefix,
		FlutterwavePrefix:  cfg.Flutterwave.ReferencePrefix,
		WebhookTTL:         cfg.Payments.WebhookIdempotencyTTL,
	}
}

func (s Settings) prefixFor(gw enums.PaymentGateway) string {
	var prefix string
	switch gw {
	case enums.PaymentGatewayPaystack:
		prefix = s.PaystackPrefix
	case enums.PaymentGatewayFlutterwave:
		prefix = s.FlutterwavePrefix
	}
	if strings.TrimSpace(prefix) == "" {
		return strings.ToUpper(string(gw))
	}
	return prefix
}

type ServiceParams struct {
	Tx         txRunner
	Repo       Repository
	Registry   *Registry
	Reconciler *Reconciler
	Webhooks   webhookGuard
	Clock      clock.Clock
	Logger     *logger.Logger
	Settings   Settings
}

type service struct {
	tx         txRunner
	repo       Repository
	registry   *Registry
	reconciler *Reconciler
	webhooks   webhookGuard
	clock      clock.Clock
	logg       *logger.Logger
	settings   Settings
}

func NewService(params ServiceParams) (Service, error) {
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("gateway registry required")
	}
	if params.Reconciler == nil {
		return nil, fmt.Errorf("reconciler required")
	}
	if params.Clock == nil {
		params.Clock = clock.System
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	return &service{
		tx:         params.Tx,
		repo:       params.Repo,
		registry:   params.Registry,
		reconciler: params.Reconciler,
		webhooks:   params.Webhooks,
		clock:      params.Clock,
		logg:       params.Logger,
		settings:   params.Settings,
	}, nil
}

// InitializeInput opens a gateway checkout for an order. Amount is optional;
// when sent it must match the order total.
type InitializeInput struct {
	Actor       orders.Actor
	OrderID     int64
	Gateway     string
	Customer    gateway.Customer
	CallbackURL string
	Amount      *decimal.Decimal
	AmountUnit  money.Unit
}

type InitializeResult struct {
	OrderID     int64                `json:"order_id"`
	OrderNumber string               `json:"order_number"`
	Gateway     enums.PaymentGateway `json:"gateway"`
	Reference   string               `json:"reference"`
	AccessCode  string               `json:"access_code,omitempty"`
	RedirectURL string               `json:"redirect_url"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    enums.Currency       `json:"currency"`
}

func (s *service) Initialize(ctx context.Context, input InitializeInput) (*InitializeResult, error) {
	if input.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required").
			WithDetails(map[string]any{"order_id": "required"})
	}
	ctx = s.logg.WithOrderID(ctx, input.OrderID)

	order, err := s.repo.FindOrder(ctx, input.OrderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !input.Actor.IsAdmin() && order.UserID != input.Actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}

	gw, err := s.gatewayFor(order, input.Gateway)
	if err != nil {
		return nil, err
	}
	if order.Status.IsTerminal() {
		return nil, pkgerrors.Newf(pkgerrors.CodeStateConflict, "order is %s", order.Status)
	}
	if order.PaymentStatus == enums.OrderPaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	if err := checkRequestedAmount(gw, input, order.GrandTotal); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Customer.Email) == "" && order.Shipping.Email != nil {
		input.Customer.Email = *order.Shipping.Email
	}
	if strings.TrimSpace(input.Customer.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required").
			WithDetails(map[string]any{"email": "required"})
	}

	client, err := s.registry.Get(gw)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeConfiguration) {
			s.logg.Error(s.logg.WithField(ctx, "gateway", gw), "payment gateway not configured", err)
		}
		return nil, err
	}

	reference := gateway.NewReference(s.settings.prefixFor(gw), s.clock.Now(), order.ID)
	res, err := client.Initialize(ctx, gateway.InitializeRequest{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Reference:   reference,
		Amount:      money.Major(order.GrandTotal),
		Currency:    order.Currency,
		Customer:    input.Customer,
		CallbackURL: s.callbackURL(input.CallbackURL, gw),
	})
	if err != nil {
		if ge, ok := gateway.AsError(err); ok {
			s.logg.Error(s.logg.WithFields(ctx, map[string]any{
				"gateway":      ge.Gateway,
				"status_code":  ge.StatusCode,
				"raw_response": ge.RawResponse,
			}), "payment initialization failed", err)
		}
		return nil, err
	}
	if strings.TrimSpace(res.Reference) != "" {
		reference = res.Reference
	}

	payment := &models.Payment{
		OrderID:   order.ID,
		Gateway:   gw,
		Reference: reference,
		Amount:    order.GrandTotal,
		Currency:  order.Currency,
		Status:    enums.PaymentStatusPending,
	}
	if res.AccessCode != "" {
		code := res.AccessCode
		payment.AccessCode = &code
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, payment); err != nil {
			if db.IsUniqueViolation(err, "reference") {
				return pkgerrors.New(pkgerrors.CodeConflict, "payment reference already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}
		if err := repo.SetOrderPaymentReference(ctx, order.ID, reference); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment reference")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithPayment(ctx, gw.String(), reference), "payment.initialized")
	return &InitializeResult{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Gateway:     gw,
		Reference:   reference,
		AccessCode:  res.AccessCode,
		RedirectURL: res.RedirectURL,
		Amount:      order.GrandTotal,
		Currency:    order.Currency,
	}, nil
}

// gatewayFor returns the gateway that settles the order's payment method.
func (s *service) gatewayFor(order *models.Order, requested string) (enums.PaymentGateway, error) {
	expected, online := order.PaymentMethod.Gateway()
	if !online {
		return "", pkgerrors.Newf(pkgerrors.CodeBusinessRule, "order is paid by %s and needs no online payment", order.PaymentMethod)
	}
	if strings.TrimSpace(requested) == "" {
		return expected, nil
	}
	gw, err := s.registry.Resolve(requested)
	if err != nil {
		return "", err
	}
	if gw != expected {
		return "", pkgerrors.Newf(pkgerrors.CodeBusinessRule, "order was placed for %s", expected).
			WithDetails(map[string]any{"gateway": "must match the order payment method"})
	}
	return gw, nil
}

// checkRequestedAmount compares a client supplied amount with the order total.
// Unit-less Paystack amounts go through the legacy unit heuristic.
func checkRequestedAmount(gw enums.PaymentGateway, input InitializeInput, total decimal.Decimal) error {
	if input.Amount == nil {
		return nil
	}
	amount := money.Amount{Value: *input.Amount, Unit: input.AmountUnit}
	var major decimal.Decimal
	switch {
	case amount.IsExplicit():
		major, _ = amount.ToMajor()
	case gw == enums.PaymentGatewayPaystack:
		major = decimal.NewFromInt(paystack.ToMinorUnits(amount.Value)).Div(decimal.NewFromInt(100))
	default:
		major = amount.Value
	}
	if !money.RoundCurrency(major).Equal(money.RoundCurrency(total)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount does not match the order total").
			WithDetails(map[string]any{"amount": fmt.Sprintf("expected %s", total.StringFixed(2))})
	}
	return nil
}

func (s *service) callbackURL(requested string, gw enums.PaymentGateway) string {
	raw := strings.TrimSpace(requested)
	if raw == "" {
		raw = s.settings.CallbackURL
	}
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get("gateway") == "" {
		q.Set("gateway", string(gw))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// VerifyInput asks the gateway for the truth about a transaction.
type VerifyInput struct {
	Gateway       string
	Reference     string
	TransactionID string
	Channel       enums.ReconcileChannel
}

// Outcome is what a verify or webhook produced. Success false means the
// gateway did not report a successful charge and nothing was changed.
type Outcome struct {
	Success          bool            `json:"success"`
	GatewayStatus    string          `json:"gateway_status,omitempty"`
	AlreadyProcessed bool            `json:"already_processed"`
	Order            *models.Order   `json:"-"`
	Payment          *models.Payment `json:"-"`
}

func (s *service) Verify(ctx context.Context, input VerifyInput) (*Outcome, error) {
	input.Reference = strings.TrimSpace(input.Reference)
	input.TransactionID = strings.TrimSpace(input.TransactionID)
	if input.Reference == "" && input.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required").
			WithDetails(map[string]any{"reference": "required"})
	}
	if input.Channel == "" {
		input.Channel = enums.ReconcileChannelVerify
	}
	gw, err := s.registry.Resolve(input.Gateway)
	if err != nil {
		return nil, err
	}
	client, err := s.registry.Get(gw)
	if err != nil {
		return nil, err
	}

	res, err := client.Verify(ctx, gateway.VerifyQuery{Reference: input.Reference, TransactionID: input.TransactionID})
	if err != nil {
		if ge, ok := gateway.AsError(err); ok {
			s.logg.Error(s.logg.WithFields(ctx, map[string]any{
				"gateway":      ge.Gateway,
				"status_code":  ge.StatusCode,
				"raw_response": ge.RawResponse,
			}), "payment verification failed", err)
		}
		return nil, err
	}
	if !res.Success {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"gateway": gw, "gateway_status": res.Status}), "payment.not_successful")
		return &Outcome{Success: false, GatewayStatus: res.Status}, nil
	}

	reference := res.Reference
	if reference == "" {
		reference = input.Reference
	}
	amount := res.Amount
	result, err := s.reconciler.Reconcile(ctx, ReconcileInput{
		Gateway:         gw,
		Reference:       reference,
		TransactionID:   res.TransactionID,
		ClaimedAmount:   &amount,
		ClaimedCurrency: res.Currency,
		RawPayload:      res.RawPayload,
		Channel:         input.Channel,
	})
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Success:          true,
		GatewayStatus:    res.Status,
		AlreadyProcessed: result.AlreadyProcessed,
		Order:            result.Order,
		Payment:          result.Payment,
	}, nil
}

// CallbackInput is the browser redirect back from the gateway.
type CallbackInput struct {
	Gateway       string
	Reference     string
	TransactionID string
	Status        string
}

// Callback reconciles a browser redirect and returns where to send the
// browser. Failures are logged and end on the failure page.
func (s *service) Callback(ctx context.Context, input CallbackInput) string {
	status := strings.ToLower(strings.TrimSpace(input.Status))
	if status == "cancelled" || status == "failed" {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"payment_reference": input.Reference, "gateway_status": status}), "payment.callback_abandoned")
		return s.redirect(s.settings.FailureRedirectURL, input.Reference, nil)
	}

	outcome, err := s.Verify(ctx, VerifyInput{
		Gateway:       input.Gateway,
		Reference:     input.Reference,
		TransactionID: input.TransactionID,
		Channel:       enums.ReconcileChannelCallback,
	})
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "payment_reference", input.Reference), "payment callback reconciliation failed", err)
		return s.redirect(s.settings.FailureRedirectURL, input.Reference, nil)
	}
	if !outcome.Success {
		return s.redirect(s.settings.FailureRedirectURL, input.Reference, nil)
	}
	return s.redirect(s.settings.SuccessRedirectURL, input.Reference, outcome.Order)
}

func (s *service) redirect(base, reference string, order *models.Order) string {
	if base == "" {
		base = "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	if reference != "" {
		q.Set("reference", reference)
	}
	if order != nil {
		q.Set("order", order.OrderNumber)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// WebhookInput is an unverified gateway delivery.
type WebhookInput struct {
	Gateway enums.PaymentGateway
	Headers http.Header
	Body    []byte
}

type WebhookOutcome struct {
	EventID          string
	Ignored          bool
	Duplicate        bool
	AlreadyProcessed bool
	OrderID          int64
}

// HandleWebhook verifies the signature before anything else. A bad signature
// is UNAUTHORIZED; every later failure is returned for logging only.
func (s *service) HandleWebhook(ctx context.Context, input WebhookInput) (*WebhookOutcome, error) {
	gw := input.Gateway
	if gw == "" {
		detected, ok := DetectGateway(input.Headers)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature missing")
		}
		gw = detected
	}
	client, err := s.registry.Get(gw)
	if err != nil {
		return nil, err
	}
	if err := client.VerifySignature(input.Headers, input.Body); err != nil {
		if errors.Is(err, gateway.ErrInvalidSignature) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid webhook signature")
		}
		return nil, err
	}

	event, err := client.ParseWebhook(input.Body)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"gateway": gw, "webhook_event": event.Type, "webhook_event_id": event.EventID})
	outcome := &WebhookOutcome{EventID: event.EventID}
	if !event.Success {
		s.logg.Info(ctx, "webhook.ignored")
		outcome.Ignored = true
		return outcome, nil
	}

	var key string
	if s.webhooks != nil && event.EventID != "" {
		key = s.webhooks.WebhookKey(string(gw), event.EventID)
		first, err := s.webhooks.SetNX(ctx, key, s.clock.Now().UTC().Format(time.RFC3339), s.settings.WebhookTTL)
		if err != nil {
			s.logg.Warn(ctx, "webhook de-duplication unavailable; reconciling anyway")
			key = ""
		} else if !first {
			s.logg.Info(ctx, "webhook.duplicate")
			outcome.Duplicate = true
			return outcome, nil
		}
	}

	amount := event.Amount
	result, err := s.reconciler.Reconcile(ctx, ReconcileInput{
		Gateway:         gw,
		Reference:       event.Reference,
		TransactionID:   event.TransactionID,
		ClaimedAmount:   &amount,
		ClaimedCurrency: event.Currency,
		RawPayload:      event.RawPayload,
		Channel:         enums.ReconcileChannelWebhook,
	})
	if err != nil {
		// Let a redelivery try again.
		if key != "" {
			if delErr := s.webhooks.Del(ctx, key); delErr != nil {
				s.logg.Warn(ctx, "failed to release webhook de-duplication key")
			}
		}
		return outcome, err
	}
	outcome.AlreadyProcessed = result.AlreadyProcessed
	outcome.OrderID = result.Order.ID
	return outcome, nil
}

// StatusResult is the polling view of an order's payment.
type StatusResult struct {
	OrderID          int64                    `json:"order_id"`
	OrderNumber      string                   `json:"order_number"`
	Status           enums.OrderStatus        `json:"status"`
	PaymentStatus    enums.OrderPaymentStatus `json:"payment_status"`
	PaymentMethod    enums.PaymentMethod      `json:"payment_method"`
	PaymentReference *string                  `json:"payment_reference,omitempty"`
	GrandTotal       decimal.Decimal          `json:"grand_total"`
	Currency         enums.Currency           `json:"currency"`
	PaidAt           *time.Time               `json:"paid_at,omitempty"`
	LatestAttempt    *AttemptDTO              `json:"latest_attempt,omitempty"`
}

type AttemptDTO struct {
	Gateway     enums.PaymentGateway    `json:"gateway"`
	Reference   string                  `json:"reference"`
	Status      enums.PaymentStatus     `json:"status"`
	Amount      decimal.Decimal         `json:"amount"`
	Channel     *enums.ReconcileChannel `json:"channel,omitempty"`
	CompletedAt *time.Time              `json:"completed_at,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
}

func (s *service) Status(ctx context.Context, actor orders.Actor, orderID int64) (*StatusResult, error) {
	if orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if !actor.IsAdmin() && order.UserID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}

	result := &StatusResult{
		OrderID:          order.ID,
		OrderNumber:      order.OrderNumber,
		Status:           order.Status,
		PaymentStatus:    order.PaymentStatus,
		PaymentMethod:    order.PaymentMethod,
		PaymentReference: order.PaymentReference,
		GrandTotal:       order.GrandTotal,
		Currency:         order.Currency,
		PaidAt:           order.PaidAt,
	}
	payment, err := s.repo.FindLatestByOrder(ctx, order.ID)
	switch {
	case err == nil:
		result.LatestAttempt = &AttemptDTO{
			Gateway:     payment.Gateway,
			Reference:   payment.Reference,
			Status:      payment.Status,
			Amount:      payment.Amount,
			Channel:     payment.Channel,
			CompletedAt: payment.CompletedAt,
			CreatedAt:   payment.CreatedAt,
		}
	case !db.IsNotFound(err):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return result, nil
}
