package delivery

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/pkg/config"
	"github.com/shoplane/storefront-backend/pkg/db/models"
)

// Policy is a fully resolved delivery fee configuration.
type Policy struct {
	BaseFee               decimal.Decimal
	PerKmFee              decimal.Decimal
	FreeDeliveryThreshold decimal.Decimal
	MinimumOrder          decimal.Decimal
	FreeDistanceKm        decimal.Decimal
	PreparationMinutes    decimal.Decimal
	MinutesPerKm          decimal.Decimal
}

// PolicyFromConfig builds the global defaults.
func PolicyFromConfig(cfg config.DeliveryConfig) Policy {
	return Policy{
		BaseFee:               cfg.BaseFee,
		PerKmFee:              cfg.PerKmFee,
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
		MinimumOrder:          cfg.MinimumOrder,
		FreeDistanceKm:        cfg.FreeDistanceKm,
		PreparationMinutes:    cfg.PreparationMinutes,
		MinutesPerKm:          cfg.MinutesPerKm,
	}
}

// PointOverrides are the per-point settings; unset values defer to the global policy.
type PointOverrides struct {
	BaseFee               decimal.NullDecimal
	PerKmFee              decimal.NullDecimal
	FreeDeliveryThreshold decimal.NullDecimal
	MinimumOrder          decimal.NullDecimal
}

// PointPolicy extracts the overrides configured on a fulfillment point.
func PointPolicy(point *models.FulfillmentPoint) PointOverrides {
	if point == nil {
		return PointOverrides{}
	}
	return PointOverrides{
		BaseFee:               point.BaseFee,
		PerKmFee:              point.PerKmFee,
		FreeDeliveryThreshold: point.FreeDeliveryThreshold,
		MinimumOrder:          point.MinimumOrder,
	}
}

// OrDefault layers the overrides on top of global.
func (o PointOverrides) OrDefault(global Policy) Policy {
	resolved := global
	if o.BaseFee.Valid {
		resolved.BaseFee = o.BaseFee.Decimal
	}
	if o.PerKmFee.Valid {
		resolved.PerKmFee = o.PerKmFee.Decimal
	}
	if o.FreeDeliveryThreshold.Valid {
		resolved.FreeDeliveryThreshold = o.FreeDeliveryThreshold.Decimal
	}
	if o.MinimumOrder.Valid {
		resolved.MinimumOrder = o.MinimumOrder.Decimal
	}
	return resolved
}

// QualifiesForFreeDelivery reports whether subtotal reaches the threshold.
// A threshold of zero or less disables free delivery.
func (p Policy) QualifiesForFreeDelivery(subtotal decimal.Decimal) bool {
	return p.FreeDeliveryThreshold.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeDeliveryThreshold)
}

// Fee is base + ceil(distance beyond the free band) x per-km, or zero when
// the subtotal qualifies for free delivery.
func (p Policy) Fee(subtotal decimal.Decimal, distanceKm float64) decimal.Decimal {
	if p.QualifiesForFreeDelivery(subtotal) {
		return decimal.Zero
	}
	excess := decimal.NewFromFloat(distanceKm).Sub(p.FreeDistanceKm)
	chargeableKm := decimal.Max(decimal.Zero, excess.Ceil())
	return p.BaseFee.Add(chargeableKm.Mul(p.PerKmFee)).Round(2)
}

// EstimatedMinutes is preparation time plus a per-km travel allowance.
func (p Policy) EstimatedMinutes(distanceKm float64) int {
	travel := decimal.NewFromFloat(distanceKm).Mul(p.MinutesPerKm).Ceil()
	return int(p.PreparationMinutes.Ceil().Add(travel).IntPart())
}

func roundKm(d float64) float64 {
	return math.Round(d*100) / 100
}

// trimNoise rounds to the millimetre so float error cannot push an exact
// kilometre over a ceil boundary.
func trimNoise(d float64) float64 {
	return math.Round(d*1e6) / 1e6
}
