package payments

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shoplane/storefront-backend/pkg/config"
	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/flutterwave"
	"github.com/shoplane/storefront-backend/pkg/gateway"
	"github.com/shoplane/storefront-backend/pkg/logger"
	"github.com/shoplane/storefront-backend/pkg/metrics"
	"github.com/shoplane/storefront-backend/pkg/paystack"
)

// Registry selects the gateway client for an order. Gateways without
// credentials are simply absent.
type Registry struct {
	clients  map[enums.PaymentGateway]gateway.Client
	fallback enums.PaymentGateway
}

// NewRegistry indexes clients by name. The default gateway is used when a
// request does not name one.
func NewRegistry(defaultGateway enums.PaymentGateway, clients ...gateway.Client) *Registry {
	r := &Registry{clients: map[enums.PaymentGateway]gateway.Client{}, fallback: defaultGateway}
	for _, c := range clients {
		if c != nil {
			r.clients[c.Name()] = c
		}
	}
	return r
}

// NewRegistryFromConfig builds a client for every gateway with a secret key.
// Each client is wrapped so its calls are timed.
func NewRegistryFromConfig(ctx context.Context, cfg *config.Config, m *metrics.Checkout, logg *logger.Logger) (*Registry, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	var clients []gateway.Client

	if cfg.Paystack.Configured() {
		client, err := paystack.NewClient(cfg.Paystack.SecretKey,
			paystack.WithBaseURL(cfg.Paystack.BaseURL),
			paystack.WithTimeout(cfg.Paystack.Timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("paystack client: %w", err)
		}
		clients = append(clients, Instrument(client, m))
	} else {
		logg.Warn(logg.WithField(ctx, "gateway", enums.PaymentGatewayPaystack), "payment gateway not configured")
	}

	if cfg.Flutterwave.Configured() {
		client, err := flutterwave.NewClient(cfg.Flutterwave.SecretKey,
			flutterwave.WithBaseURL(cfg.Flutterwave.BaseURL),
			flutterwave.WithSecretHash(cfg.Flutterwave.SecretHash),
			flutterwave.WithTimeout(cfg.Flutterwave.Timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("flutterwave client: %w", err)
		}
		clients = append(clients, Instrument(client, m))
	} else {
		logg.Warn(logg.WithField(ctx, "gateway", enums.PaymentGatewayFlutterwave), "payment gateway not configured")
	}

	fallback := enums.PaymentGatewayPaystack
	if gw, err := enums.ParsePaymentGateway(cfg.Payments.DefaultGateway); err == nil {
		fallback = gw
	}
	return NewRegistry(fallback, clients...), nil
}

// Get returns the client for gw, or a CONFIGURATION_ERROR when it has no credentials.
func (r *Registry) Get(gw enums.PaymentGateway) (gateway.Client, error) {
	if !gw.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported payment gateway %q", gw).
			WithDetails(map[string]any{"gateway": "must be paystack or flutterwave"})
	}
	client, ok := r.clients[gw]
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeConfiguration, "payment gateway not configured: %s", gw)
	}
	return client, nil
}

// Resolve parses a raw gateway name, using the default when blank.
func (r *Registry) Resolve(raw string) (enums.PaymentGateway, error) {
	if strings.TrimSpace(raw) == "" {
		return r.fallback, nil
	}
	gw, err := enums.ParsePaymentGateway(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported payment gateway").
			WithDetails(map[string]any{"gateway": "must be paystack or flutterwave"})
	}
	return gw, nil
}

// Configured lists the gateways that have credentials.
func (r *Registry) Configured() []enums.PaymentGateway {
	out := make([]enums.PaymentGateway, 0, len(r.clients))
	for _, gw := range []enums.PaymentGateway{enums.PaymentGatewayPaystack, enums.PaymentGatewayFlutterwave} {
		if _, ok := r.clients[gw]; ok {
			out = append(out, gw)
		}
	}
	return out
}

// DetectGateway infers the sender of an unrouted webhook from its signature header.
func DetectGateway(headers http.Header) (enums.PaymentGateway, bool) {
	switch {
	case headers.Get(paystack.SignatureHeader) != "":
		return enums.PaymentGatewayPaystack, true
	case headers.Get(flutterwave.SignatureHeader) != "", headers.Get(flutterwave.LegacyHashHeader) != "":
		return enums.PaymentGatewayFlutterwave, true
	default:
		return "", false
	}
}

// instrumented records the latency of the outbound gateway calls.
type instrumented struct {
	gateway.Client
	metrics *metrics.Checkout
}

// Instrument wraps client so Initialize and Verify are observed.
func Instrument(client gateway.Client, m *metrics.Checkout) gateway.Client {
	if m == nil {
		return client
	}
	return &instrumented{Client: client, metrics: m}
}

func (i *instrumented) Initialize(ctx context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	start := time.Now()
	res, err := i.Client.Initialize(ctx, req)
	i.metrics.ObserveGatewayCall(string(i.Name()), "initialize", err, time.Since(start))
	return res, err
}

func (i *instrumented) Verify(ctx context.Context, query gateway.VerifyQuery) (*gateway.VerifyResult, error) {
	start := time.Now()
	res, err := i.Client.Verify(ctx, query)
	i.metrics.ObserveGatewayCall(string(i.Name()), "verify", err, time.Since(start))
	return res, err
}
