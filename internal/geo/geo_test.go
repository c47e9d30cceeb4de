package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shoplane/storefront-backend/pkg/types"
)

var square = []types.Coordinate{
	{Lat: 6.40, Lng: 3.30},
	{Lat: 6.40, Lng: 3.50},
	{Lat: 6.60, Lng: 3.50},
	{Lat: 6.60, Lng: 3.30},
}

func TestDistanceKm(t *testing.T) {
	lagos := types.Coordinate{Lat: 6.5244, Lng: 3.3792}
	abuja := types.Coordinate{Lat: 9.0765, Lng: 7.3986}

	assert.InDelta(t, 0, DistanceKm(lagos, lagos), 1e-9)
	assert.InDelta(t, 525, DistanceKm(lagos, abuja), 5)
	assert.InDelta(t, DistanceKm(lagos, abuja), DistanceKm(abuja, lagos), 1e-9)

	// One degree of latitude along a meridian.
	assert.InDelta(t, 111.19, DistanceKm(types.Coordinate{Lat: 0, Lng: 0}, types.Coordinate{Lat: 1, Lng: 0}), 0.01)
}

func TestValid(t *testing.T) {
	cases := []struct {
		name string
		in   types.Coordinate
		want bool
	}{
		{"origin", types.Coordinate{}, true},
		{"poles", types.Coordinate{Lat: 90, Lng: -180}, true},
		{"lat out of range", types.Coordinate{Lat: 90.1, Lng: 0}, false},
		{"lng out of range", types.Coordinate{Lat: 0, Lng: 180.5}, false},
		{"nan", types.Coordinate{Lat: math.NaN(), Lng: 0}, false},
		{"inf", types.Coordinate{Lat: 0, Lng: math.Inf(1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Valid(tc.in))
		})
	}
}

func TestPointInPolygon(t *testing.T) {
	assert.True(t, PointInPolygon(types.Coordinate{Lat: 6.5, Lng: 3.4}, square))
	assert.False(t, PointInPolygon(types.Coordinate{Lat: 6.7, Lng: 3.4}, square))
	assert.False(t, PointInPolygon(types.Coordinate{Lat: 6.5, Lng: 3.6}, square))
}

func TestPointInPolygonBoundaryIsInside(t *testing.T) {
	assert.True(t, PointInPolygon(types.Coordinate{Lat: 6.40, Lng: 3.40}, square), "bottom edge")
	assert.True(t, PointInPolygon(types.Coordinate{Lat: 6.50, Lng: 3.50}, square), "right edge")
	assert.True(t, PointInPolygon(types.Coordinate{Lat: 6.60, Lng: 3.30}, square), "vertex")
}

func TestPointInPolygonConcave(t *testing.T) {
	// U shape opening north; the notch is outside.
	u := []types.Coordinate{
		{Lat: 0, Lng: 0}, {Lat: 0, Lng: 3}, {Lat: 3, Lng: 3}, {Lat: 3, Lng: 2},
		{Lat: 1, Lng: 2}, {Lat: 1, Lng: 1}, {Lat: 3, Lng: 1}, {Lat: 3, Lng: 0},
	}
	assert.True(t, PointInPolygon(types.Coordinate{Lat: 2, Lng: 0.5}, u))
	assert.False(t, PointInPolygon(types.Coordinate{Lat: 2, Lng: 1.5}, u))
	assert.True(t, PointInPolygon(types.Coordinate{Lat: 0.5, Lng: 1.5}, u))
}

func TestPointInPolygonDegenerate(t *testing.T) {
	assert.False(t, PointInPolygon(types.Coordinate{Lat: 6.5, Lng: 3.4}, square[:2]))
	assert.False(t, PointInPolygon(types.Coordinate{Lat: 6.5, Lng: 3.4}, nil))
}
