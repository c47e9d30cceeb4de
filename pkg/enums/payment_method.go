package enums

import "fmt"

// PaymentMethod describes how a customer intends to settle an order.
type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodPaystack       PaymentMethod = "paystack"
	PaymentMethodFlutterwave    PaymentMethod = "flutterwave"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodCashOnDelivery,
	PaymentMethodPaystack,
	PaymentMethodFlutterwave,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsOnline reports whether the method settles through a payment gateway.
func (p PaymentMethod) IsOnline() bool {
	_, ok := p.Gateway()
	return ok
}

// Gateway returns the gateway that settles this method, if any.
func (p PaymentMethod) Gateway() (PaymentGateway, bool) {
	switch p {
	case PaymentMethodPaystack:
		return PaymentGatewayPaystack, true
	case PaymentMethodFlutterwave:
		return PaymentGatewayFlutterwave, true
	default:
		return "", false
	}
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
