// Package delivery quotes delivery fees from a fulfillment point to a
// customer location.
package delivery

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/internal/geo"
	"github.com/shoplane/storefront-backend/pkg/db"
	"github.com/shoplane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/types"
)

const (
	msgNoPoint            = "delivery is not available: no delivery location is configured"
	msgPointNoDelivery    = "delivery is not available from this location"
	msgInvalidCustomer    = "delivery coordinates are invalid"
	msgInvalidPoint       = "fulfillment point coordinates are invalid"
	msgOutsideGeofence    = "delivery is not available at this address"
	msgFreeDelivery       = "free delivery"
	msgDeliveryAvailable  = "delivery available"
	minimumOrderMsgFormat = "minimum order for delivery is %s; add %s more"
)

// PointSource resolves fulfillment points.
type PointSource interface {
	FindByID(ctx context.Context, id int64) (*models.FulfillmentPoint, error)
	ListActive(ctx context.Context) ([]models.FulfillmentPoint, error)
}

// QuoteInput describes a delivery fee request.
type QuoteInput struct {
	Subtotal           decimal.Decimal
	Customer           types.Coordinate
	FulfillmentPointID *int64
}

// Quote is the fee outcome. Unavailable quotes always carry a zero fee.
type Quote struct {
	Fee                decimal.Decimal `json:"fee"`
	DistanceKm         float64         `json:"distance_km"`
	IsAvailable        bool            `json:"is_available"`
	Message            string          `json:"message"`
	EstimatedMinutes   int             `json:"estimated_minutes"`
	FulfillmentPointID *int64          `json:"fulfillment_point_id,omitempty"`
}

// Calculator produces delivery quotes. Only point lookup failures are
// returned as errors; every other outcome is a quote.
type Calculator struct {
	points   PointSource
	defaults Policy
}

func NewCalculator(points PointSource, defaults Policy) (*Calculator, error) {
	if points == nil {
		return nil, fmt.Errorf("fulfillment point source required")
	}
	return &Calculator{points: points, defaults: defaults}, nil
}

func (c *Calculator) Quote(ctx context.Context, input QuoteInput) (*Quote, error) {
	point, err := c.resolvePoint(ctx, input.FulfillmentPointID)
	if err != nil {
		return nil, err
	}
	if point == nil {
		return unavailable(msgNoPoint, nil), nil
	}
	pointID := point.ID
	if !point.IsActive || !point.SupportsDelivery {
		return unavailable(msgPointNoDelivery, &pointID), nil
	}

	if !geo.Valid(input.Customer) {
		return unavailable(msgInvalidCustomer, &pointID), nil
	}
	if !geo.Valid(point.Coordinate()) {
		return unavailable(msgInvalidPoint, &pointID), nil
	}

	// Fee and ETA use the measured distance; only the reported figure is rounded.
	measured := trimNoise(geo.DistanceKm(point.Coordinate(), input.Customer))
	distance := roundKm(measured)

	if point.Geofence.Restricts() && !geo.PointInPolygon(input.Customer, point.Geofence) {
		q := unavailable(msgOutsideGeofence, &pointID)
		q.DistanceKm = distance
		return q, nil
	}

	policy := PointPolicy(point).OrDefault(c.defaults)

	if policy.MinimumOrder.IsPositive() && input.Subtotal.LessThan(policy.MinimumOrder) {
		shortfall := policy.MinimumOrder.Sub(input.Subtotal)
		q := unavailable(fmt.Sprintf(minimumOrderMsgFormat, policy.MinimumOrder.StringFixed(2), shortfall.StringFixed(2)), &pointID)
		q.DistanceKm = distance
		return q, nil
	}

	fee := policy.Fee(input.Subtotal, measured)
	message := msgDeliveryAvailable
	if policy.QualifiesForFreeDelivery(input.Subtotal) {
		message = msgFreeDelivery
	}
	return &Quote{
		Fee:                fee,
		DistanceKm:         distance,
		IsAvailable:        true,
		Message:            message,
		EstimatedMinutes:   policy.EstimatedMinutes(measured),
		FulfillmentPointID: &pointID,
	}, nil
}

// resolvePoint returns the explicit point, else the first active
// delivery-capable one. A nil point with nil error means none exists.
func (c *Calculator) resolvePoint(ctx context.Context, id *int64) (*models.FulfillmentPoint, error) {
	if id != nil {
		point, err := c.points.FindByID(ctx, *id)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fulfillment point not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load fulfillment point")
		}
		return point, nil
	}

	points, err := c.points.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fulfillment points")
	}
	for i := range points {
		if points[i].IsActive && points[i].SupportsDelivery {
			point := points[i]
			return &point, nil
		}
	}
	return nil, nil
}

func unavailable(message string, pointID *int64) *Quote {
	return &Quote{Fee: decimal.Zero, IsAvailable: false, Message: message, FulfillmentPointID: pointID}
}
