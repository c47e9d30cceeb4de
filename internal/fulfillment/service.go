package fulfillment

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/shoplane/storefront-backend/internal/geo"
	"github.com/shoplane/storefront-backend/pkg/db/models"
	pkgerrors "github.com/shoplane/storefront-backend/pkg/errors"
	"github.com/shoplane/storefront-backend/pkg/types"
)

const (
	defaultRadiusKm = 25.0
	maxRadiusKm     = 500.0
	defaultLimit    = 10
	maxLimit        = 50
)

// NearbyPoint is an active point with its distance from the search origin.
type NearbyPoint struct {
	Point      models.FulfillmentPoint
	DistanceKm float64
}

// Service answers "given coordinates, return nearby fulfillment points".
type Service interface {
	Nearby(ctx context.Context, origin types.Coordinate, radiusKm float64, limit int) ([]NearbyPoint, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("fulfillment repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Nearby(ctx context.Context, origin types.Coordinate, radiusKm float64, limit int) ([]NearbyPoint, error) {
	if !geo.Valid(origin) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid coordinates").
			WithDetails(map[string]any{"lat": "must be within [-90, 90]", "lng": "must be within [-180, 180]"})
	}
	if radiusKm <= 0 || math.IsNaN(radiusKm) {
		radiusKm = defaultRadiusKm
	}
	radiusKm = math.Min(radiusKm, maxRadiusKm)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	points, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list fulfillment points")
	}

	nearby := make([]NearbyPoint, 0, len(points))
	for _, point := range points {
		if !geo.Valid(point.Coordinate()) {
			continue
		}
		d := geo.DistanceKm(origin, point.Coordinate())
		if d > radiusKm {
			continue
		}
		nearby = append(nearby, NearbyPoint{Point: point, DistanceKm: math.Round(d*100) / 100})
	}
	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}
