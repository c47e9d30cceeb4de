package enums

import (
	"fmt"
	"strings"
)

// PaymentGateway identifies a remote payment provider.
type PaymentGateway string

const (
	PaymentGatewayPaystack    PaymentGateway = "paystack"
	PaymentGatewayFlutterwave PaymentGateway = "flutterwave"
)

func (g PaymentGateway) String() string {
	return string(g)
}

func (g PaymentGateway) IsValid() bool {
	return g == PaymentGatewayPaystack || g == PaymentGatewayFlutterwave
}

// ParsePaymentGateway accepts any casing and surrounding whitespace.
func ParsePaymentGateway(value string) (PaymentGateway, error) {
	g := PaymentGateway(strings.ToLower(strings.TrimSpace(value)))
	if !g.IsValid() {
		return "", fmt.Errorf("invalid payment gateway %q", value)
	}
	return g, nil
}
