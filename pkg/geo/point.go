// Package geo handles the GeoJSON point format used by listing payloads.
package geo

import (
	"encoding/json"
	"fmt"
)

// Point is a GeoJSON point: {"type":"Point","coordinates":[lng,lat]}
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// NewPoint builds a point from a longitude/latitude pair
func NewPoint(lng, lat float64) Point {
	return Point{Type: "Point", Coordinates: [2]float64{lng, lat}}
}

// Lng returns the longitude component
func (p Point) Lng() float64 { return p.Coordinates[0] }

// Lat returns the latitude component
func (p Point) Lat() float64 { return p.Coordinates[1] }

// Validate checks the GeoJSON type tag and coordinate ranges
func (p Point) Validate() error {
	if p.Type != "Point" {
		return fmt.Errorf("location type must be \"Point\", got %q", p.Type)
	}
	if p.Lng() < -180 || p.Lng() > 180 {
		return fmt.Errorf("longitude %v out of range", p.Lng())
	}
	if p.Lat() < -90 || p.Lat() > 90 {
		return fmt.Errorf("latitude %v out of range", p.Lat())
	}
	return nil
}

// Parse decodes and validates a GeoJSON point from a JSON string.
// Listing payloads carry the location as a string form field, so malformed
// JSON and out-of-range coordinates are both reported as parse failures.
func Parse(raw string) (Point, error) {
	var p Point
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Point{}, fmt.Errorf("invalid location format: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Point{}, err
	}
	return p, nil
}
