package delivery

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/shoplane/storefront-backend/api/responses"
	"github.com/shoplane/storefront-backend/api/validators"
	internaldelivery "github.com/shoplane/storefront-backend/internal/delivery"
	"github.com/shoplane/storefront-backend/internal/fulfillment"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/logger"
	"github.com/shoplane/storefront-backend/pkg/types"
)

// Quoter is satisfied by *internaldelivery.Calculator.
type Quoter interface {
	Quote(ctx context.Context, input internaldelivery.QuoteInput) (*internaldelivery.Quote, error)
}

type quoteRequest struct {
	Latitude           *float64        `json:"latitude" validate:"required,latitude"`
	Longitude          *float64        `json:"longitude" validate:"required,longitude"`
	Subtotal           decimal.Decimal `json:"subtotal" validate:"gte=0"`
	FulfillmentPointID *int64          `json:"fulfillment_point_id,omitempty" validate:"omitempty,gt=0"`
}

// QuoteFee prices delivery to a location. An undeliverable address is a
// successful response with is_available=false.
func QuoteFee(quoter Quoter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if quoter == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery calculator unavailable"))
			return
		}

		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := quoter.Quote(r.Context(), internaldelivery.QuoteInput{
			Subtotal:           payload.Subtotal,
			Customer:           types.Coordinate{Lat: *payload.Latitude, Lng: *payload.Longitude},
			FulfillmentPointID: payload.FulfillmentPointID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

type nearbyPointDTO struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Address          string  `json:"address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	SupportsPickup   bool    `json:"supports_pickup"`
	SupportsDelivery bool    `json:"supports_delivery"`
	DistanceKm       float64 `json:"distance_km"`
}

// Nearby lists active fulfillment points around lat/lng, closest first.
func Nearby(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "fulfillment service unavailable"))
			return
		}

		lat, _, err := validators.ParseQueryFloat(r, "lat", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lng, _, err := validators.ParseQueryFloat(r, "lng", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		radius, _, err := validators.ParseQueryFloat(r, "radius_km", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, 50)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		points, err := svc.Nearby(r.Context(), types.Coordinate{Lat: lat, Lng: lng}, radius, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]nearbyPointDTO, 0, len(points))
		for _, p := range points {
			out = append(out, nearbyPointDTO{
				ID:               p.Point.ID,
				Name:             p.Point.Name,
				Address:          p.Point.Address,
				Latitude:         p.Point.Latitude,
				Longitude:        p.Point.Longitude,
				SupportsPickup:   p.Point.SupportsPickup,
				SupportsDelivery: p.Point.SupportsDelivery,
				DistanceKm:       p.DistanceKm,
			})
		}
		responses.WriteSuccess(w, out)
	}
}
