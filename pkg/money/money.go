// Package money carries amounts together with the unit they are expressed in,
// so major and minor currency units are never confused at gateway boundaries.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is the denomination an amount is expressed in.
type Unit string

const (
	// UnitUnknown marks legacy input whose unit must be inferred.
	UnitUnknown Unit = ""
	UnitMajor   Unit = "major"
	UnitMinor   Unit = "minor"
)

// minorPerMajor is 100 for every currency the storefront settles in.
var minorPerMajor = decimal.NewFromInt(100)

// Amount is a monetary value with an explicit unit.
type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

func Major(v decimal.Decimal) Amount {
	return Amount{Value: v, Unit: UnitMajor}
}

func Minor(v decimal.Decimal) Amount {
	return Amount{Value: v, Unit: UnitMinor}
}

// ParseUnit accepts "", "major", "minor" and the common aliases naira/kobo.
func ParseUnit(raw string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return UnitUnknown, nil
	case "major", "naira":
		return UnitMajor, nil
	case "minor", "kobo":
		return UnitMinor, nil
	default:
		return UnitUnknown, fmt.Errorf("unknown amount unit %q", raw)
	}
}

// IsExplicit reports whether the unit is known.
func (a Amount) IsExplicit() bool {
	return a.Unit == UnitMajor || a.Unit == UnitMinor
}

// ToMajor converts an explicit amount to major units.
func (a Amount) ToMajor() (decimal.Decimal, error) {
	switch a.Unit {
	case UnitMajor:
		return a.Value, nil
	case UnitMinor:
		return a.Value.Div(minorPerMajor), nil
	default:
		return decimal.Zero, fmt.Errorf("amount %s has no unit", a.Value)
	}
}

// ToMinor converts an explicit amount to whole minor units. Sub-minor
// fractions are rounded half away from zero.
func (a Amount) ToMinor() (int64, error) {
	switch a.Unit {
	case UnitMajor:
		return a.Value.Mul(minorPerMajor).Round(0).IntPart(), nil
	case UnitMinor:
		return a.Value.Round(0).IntPart(), nil
	default:
		return 0, fmt.Errorf("amount %s has no unit", a.Value)
	}
}

// RoundCurrency rounds a major-unit value to two decimal places.
func RoundCurrency(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
