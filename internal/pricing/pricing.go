// Package pricing derives the money breakdown of an order from its lines.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/internal/coupons"
	"github.com/shoplane/storefront-backend/pkg/db/models"
)

// Line is one priced cart line.
type Line struct {
	ProductPrice    decimal.Decimal
	PriceAdjustment decimal.Decimal
	Quantity        int
}

// EffectiveUnitPrice is the product price plus any variant adjustment.
func (l Line) EffectiveUnitPrice() decimal.Decimal {
	return l.ProductPrice.Add(l.PriceAdjustment)
}

// Total is the effective unit price times quantity.
func (l Line) Total() decimal.Decimal {
	return l.EffectiveUnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Input collects everything the breakdown depends on.
type Input struct {
	Lines       []Line
	TaxRate     decimal.Decimal
	ShippingFee decimal.Decimal
	Coupon      *models.Coupon
}

// Breakdown is the stored money split of an order.
type Breakdown struct {
	Subtotal    decimal.Decimal
	Tax         decimal.Decimal
	Discount    decimal.Decimal
	ShippingFee decimal.Decimal
	GrandTotal  decimal.Decimal
}

// Subtotal sums line totals.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total())
	}
	return total.Round(2)
}

// Compute prices the order. Tax applies to the undiscounted subtotal.
func Compute(in Input) Breakdown {
	subtotal := Subtotal(in.Lines)
	tax := subtotal.Mul(in.TaxRate).Round(2)
	discount := coupons.Discount(in.Coupon, subtotal)
	shipping := in.ShippingFee.Round(2)
	if shipping.IsNegative() {
		shipping = decimal.Zero
	}
	return Breakdown{
		Subtotal:    subtotal,
		Tax:         tax,
		Discount:    discount,
		ShippingFee: shipping,
		GrandTotal:  subtotal.Add(tax).Add(shipping).Sub(discount),
	}
}

// Verify checks the grand total identity and non-negative components.
func (b Breakdown) Verify() error {
	for name, v := range map[string]decimal.Decimal{
		"subtotal":     b.Subtotal,
		"tax":          b.Tax,
		"discount":     b.Discount,
		"shipping_fee": b.ShippingFee,
		"grand_total":  b.GrandTotal,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%s is negative: %s", name, v)
		}
	}
	want := b.Subtotal.Add(b.Tax).Add(b.ShippingFee).Sub(b.Discount)
	if !want.Equal(b.GrandTotal) {
		return fmt.Errorf("grand total %s does not match components %s", b.GrandTotal, want)
	}
	return nil
}
