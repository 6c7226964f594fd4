// Package geo provides great-circle distance helpers for WGS84 coordinates.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports whether the point lies inside the valid lat/lon ranges.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return eris.Errorf("geo: invalid latitude %f (must be between -90 and 90)", p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return eris.Errorf("geo: invalid longitude %f (must be between -180 and 180)", p.Lon)
	}
	return nil
}

// DistanceTo returns the haversine distance in meters from p to q.
func (p Point) DistanceTo(q Point) float64 {
	return Haversine(p.Lat, p.Lon, q.Lat, q.Lon)
}
