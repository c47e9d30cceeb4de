package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Coordinate is a WGS84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Geofence is an ordered vertex list, implicitly closed. It is stored as JSON
// text so the same column works on Postgres and sqlite.
type Geofence []Coordinate

// Value encodes the polygon as JSON text. Empty polygons are stored as NULL.
func (g Geofence) Value() (driver.Value, error) {
	if len(g) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal([]Coordinate(g))
	if err != nil {
		return nil, fmt.Errorf("geofence: encode %w", err)
	}
	return string(raw), nil
}

// Scan accepts JSON text or bytes.
func (g *Geofence) Scan(value any) error {
	if value == nil {
		*g = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("geofence: unsupported scan type %T", value)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" || text == "null" {
		*g = nil
		return nil
	}

	var points []Coordinate
	if err := json.Unmarshal([]byte(text), &points); err != nil {
		return fmt.Errorf("geofence: decode %w", err)
	}
	*g = points
	return nil
}

// Restricts reports whether the polygon has enough vertices to bound an area.
// Degenerate polygons impose no restriction.
func (g Geofence) Restricts() bool {
	return len(g) >= 3
}
