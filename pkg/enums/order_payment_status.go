package enums

import "fmt"

// OrderPaymentStatus is the order-level payment flag. It never regresses once paid.
type OrderPaymentStatus string

const (
	OrderPaymentStatusPending OrderPaymentStatus = "pending"
	OrderPaymentStatusPaid    OrderPaymentStatus = "paid"
)

func (s OrderPaymentStatus) String() string {
	return string(s)
}

func (s OrderPaymentStatus) IsValid() bool {
	return s == OrderPaymentStatusPending || s == OrderPaymentStatusPaid
}

func ParseOrderPaymentStatus(value string) (OrderPaymentStatus, error) {
	s := OrderPaymentStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid order payment status %q", value)
	}
	return s, nil
}
