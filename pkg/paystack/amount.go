package paystack

import (
	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/pkg/money"
)

// minorPassThroughFloor is the integer amount above which unit-less input is
// assumed to already be in kobo.
var minorPassThroughFloor = decimal.NewFromInt(100000)

var hundred = decimal.NewFromInt(100)

// ToMinorUnits guesses the unit of a unit-less amount and returns kobo.
// Fractional amounts are naira. Integers above 100000 are taken as kobo.
// Everything else is naira. Mid-range integers are ambiguous; send a
// money.Amount with an explicit unit where possible.
func ToMinorUnits(v decimal.Decimal) int64 {
	if !v.Equal(v.Truncate(0)) {
		return v.Mul(hundred).Round(0).IntPart()
	}
	if v.GreaterThan(minorPassThroughFloor) {
		return v.IntPart()
	}
	return v.Mul(hundred).IntPart()
}

// minorFor converts an amount to kobo, using the heuristic only when the unit
// is unknown.
func minorFor(a money.Amount) (int64, error) {
	if a.IsExplicit() {
		return a.ToMinor()
	}
	return ToMinorUnits(a.Value), nil
}

func fromMinor(kobo int64) decimal.Decimal {
	return decimal.NewFromInt(kobo).Div(hundred)
}
