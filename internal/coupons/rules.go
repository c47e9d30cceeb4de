// Package coupons validates coupon codes and tracks redemptions.
package coupons

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/pkg/db/models"
	"github.com/shoplane/storefront-backend/pkg/enums"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Validate checks whether coupon may be redeemed at now for subtotal by a
// user who has already redeemed it priorUses times.
func Validate(coupon *models.Coupon, now time.Time, subtotal decimal.Decimal, priorUses int) error {
	if coupon == nil {
		return rejected("coupon not found")
	}
	if !coupon.IsActive {
		return rejected("coupon is not active")
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return rejected("coupon is not yet valid")
	}
	if coupon.ExpiresAt != nil && !now.Before(*coupon.ExpiresAt) {
		return rejected("coupon has expired")
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return rejected("coupon usage limit reached")
	}
	if coupon.PerUserLimit != nil && priorUses >= *coupon.PerUserLimit {
		return rejected("you have already used this coupon")
	}
	if coupon.MinOrderAmount.Valid && subtotal.LessThan(coupon.MinOrderAmount.Decimal) {
		return rejected("order subtotal is below the coupon minimum of " + coupon.MinOrderAmount.Decimal.StringFixed(2))
	}
	return nil
}

// Discount returns the amount coupon takes off subtotal, never more than the
// subtotal itself.
func Discount(coupon *models.Coupon, subtotal decimal.Decimal) decimal.Decimal {
	if coupon == nil || !subtotal.IsPositive() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		pct := decimal.Min(coupon.Value, hundred)
		amount = subtotal.Mul(pct).Div(hundred)
	case enums.DiscountTypeFixed:
		amount = coupon.Value
	default:
		return decimal.Zero
	}

	if coupon.MaxDiscount.Valid && amount.GreaterThan(coupon.MaxDiscount.Decimal) {
		amount = coupon.MaxDiscount.Decimal
	}
	amount = decimal.Min(amount, subtotal)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}

func rejected(reason string) error {
	return pkgerrors.New(pkgerrors.CodeBusinessRule, reason).
		WithDetails(map[string]any{"coupon_code": reason})
}
