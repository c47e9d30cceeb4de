package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reconciliation outcomes.
const (
	OutcomeTransitioned     = "transitioned"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeNotFound         = "not_found"
	OutcomeRejected         = "rejected"
	OutcomeError            = "error"
)

// Checkout records order placement, gateway calls and reconciliation outcomes.
// A nil *Checkout is valid and records nothing.
type Checkout struct {
	reconciliations *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	ordersPlaced    *prometheus.CounterVec
	ordersCancelled prometheus.Counter
}

// NewCheckout registers the checkout metrics on the provided registerer.
func NewCheckout(reg prometheus.Registerer) *Checkout {
	if reg == nil {
		return &Checkout{}
	}
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_reconciliations_total",
		Help: "Payment reconciliation attempts by entry channel and outcome.",
	}, []string{"channel", "outcome"})
	gatewayDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_request_duration_seconds",
		Help:    "Duration of outbound payment gateway calls.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
	}, []string{"gateway", "operation", "result"})
	ordersPlaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed by checkout, by payment method.",
	}, []string{"payment_method"})
	ordersCancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Orders cancelled with stock restored.",
	})
	reg.MustRegister(reconciliations, gatewayDuration, ordersPlaced, ordersCancelled)
	return &Checkout{
		reconciliations: reconciliations,
		gatewayDuration: gatewayDuration,
		ordersPlaced:    ordersPlaced,
		ordersCancelled: ordersCancelled,
	}
}

func (c *Checkout) ObserveReconciliation(channel, outcome string) {
	if c == nil || c.reconciliations == nil {
		return
	}
	c.reconciliations.WithLabelValues(normalizeLabel(channel), normalizeLabel(outcome)).Inc()
}

// ObserveGatewayCall records the latency of one gateway request.
func (c *Checkout) ObserveGatewayCall(gateway, operation string, err error, duration time.Duration) {
	if c == nil || c.gatewayDuration == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.gatewayDuration.WithLabelValues(normalizeLabel(gateway), normalizeLabel(operation), result).Observe(duration.Seconds())
}

func (c *Checkout) IncOrderPlaced(paymentMethod string) {
	if c == nil || c.ordersPlaced == nil {
		return
	}
	c.ordersPlaced.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

func (c *Checkout) IncOrderCancelled() {
	if c == nil || c.ordersCancelled == nil {
		return
	}
	c.ordersCancelled.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
