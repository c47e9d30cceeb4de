package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentStatusTransitions(t *testing.T) {
	assert.True(t, PaymentStatusPending.CanTransitionTo(PaymentStatusCompleted))
	assert.False(t, PaymentStatusCompleted.CanTransitionTo(PaymentStatusPending))
	assert.False(t, PaymentStatusCompleted.CanTransitionTo(PaymentStatusCompleted))
	assert.False(t, PaymentStatusPending.CanTransitionTo(PaymentStatusPending))
}

func TestOrderStatusPredicates(t *testing.T) {
	assert.True(t, OrderStatusPending.Cancellable())
	assert.True(t, OrderStatusProcessing.Cancellable())
	assert.False(t, OrderStatusCancelled.Cancellable())
	assert.False(t, OrderStatusRefunded.Cancellable())

	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.True(t, OrderStatusRefunded.IsTerminal())
	assert.False(t, OrderStatusProcessing.IsTerminal())
}

func TestPaymentMethodGateway(t *testing.T) {
	gw, ok := PaymentMethodPaystack.Gateway()
	require.True(t, ok)
	assert.Equal(t, PaymentGatewayPaystack, gw)

	gw, ok = PaymentMethodFlutterwave.Gateway()
	require.True(t, ok)
	assert.Equal(t, PaymentGatewayFlutterwave, gw)

	_, ok = PaymentMethodCashOnDelivery.Gateway()
	assert.False(t, ok)
	assert.False(t, PaymentMethodCashOnDelivery.IsOnline())
}

func TestParseHelpers(t *testing.T) {
	gw, err := ParsePaymentGateway(" Paystack ")
	require.NoError(t, err)
	assert.Equal(t, PaymentGatewayPaystack, gw)

	_, err = ParsePaymentGateway("stripe")
	assert.Error(t, err)

	cur, err := ParseCurrency("ngn")
	require.NoError(t, err)
	assert.Equal(t, CurrencyNGN, cur)

	_, err = ParseDeliveryMethod("drone")
	assert.Error(t, err)

	_, err = ParseOrderStatus("shipped")
	assert.Error(t, err)
}
