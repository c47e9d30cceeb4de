// Package geo holds the distance and geofence primitives used by delivery
// pricing and fulfillment point lookup.
package geo

import (
	"math"

	"github.com/shoplane/storefront-backend/pkg/types"
)

const earthRadiusKm = 6371.0

// edgeEpsilon absorbs float error when testing whether a point sits on an edge.
const edgeEpsilon = 1e-9

// Valid reports whether c is a finite WGS84 coordinate.
func Valid(c types.Coordinate) bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) || math.IsNaN(c.Lng) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// DistanceKm returns the haversine great-circle distance. Callers validate
// both coordinates first.
func DistanceKm(a, b types.Coordinate) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dLat := radians(b.Lat - a.Lat)
	dLng := radians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PointInPolygon runs an even-odd ray cast over an implicitly closed polygon.
// Points on an edge or vertex count as inside. Polygons with fewer than three
// vertices contain nothing; callers treat them as unrestricted.
func PointInPolygon(p types.Coordinate, polygon []types.Coordinate) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	for i := 0; i < n; i++ {
		if onSegment(p, polygon[i], polygon[(i+1)%n]) {
			return true
		}
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		vi, vj := polygon[i], polygon[j]
		if (vi.Lat > p.Lat) != (vj.Lat > p.Lat) {
			crossLng := (vj.Lng-vi.Lng)*(p.Lat-vi.Lat)/(vj.Lat-vi.Lat) + vi.Lng
			if p.Lng < crossLng {
				inside = !inside
			}
		}
	}
	return inside
}

func onSegment(p, a, b types.Coordinate) bool {
	cross := (b.Lng-a.Lng)*(p.Lat-a.Lat) - (b.Lat-a.Lat)*(p.Lng-a.Lng)
	if math.Abs(cross) > edgeEpsilon {
		return false
	}
	return p.Lng >= math.Min(a.Lng, b.Lng)-edgeEpsilon &&
		p.Lng <= math.Max(a.Lng, b.Lng)+edgeEpsilon &&
		p.Lat >= math.Min(a.Lat, b.Lat)-edgeEpsilon &&
		p.Lat <= math.Max(a.Lat, b.Lat)+edgeEpsilon
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
