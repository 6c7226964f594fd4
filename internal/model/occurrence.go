// Package model defines the records that flow through a run.
package model

import "github.com/sells-group/roadprox-cli/pkg/geo"

// Occurrence is a species observation read from the warehouse.
type Occurrence struct {
	ID        int64   `json:"gbifid"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Species   string  `json:"species"`
}

// Point returns the occurrence coordinate.
func (o Occurrence) Point() geo.Point {
	return geo.Point{Lat: o.Latitude, Lon: o.Longitude}
}

// DistanceStatus records why an Enriched record does or does not carry a distance.
type DistanceStatus string

const (
	StatusOK          DistanceStatus = "ok"
	StatusNoRoad      DistanceStatus = "no_road"
	StatusUnavailable DistanceStatus = "unavailable"
)

// Enriched is an Occurrence with its nearest-road distance. Distance is nil
// unless Status is StatusOK. The road fields describe the nearest way and
// are not written to the warehouse.
type Enriched struct {
	Occurrence
	Distance *float64      `json:"distance"`
	Status   DistanceStatus `json:"status"`
	RoadID   int64          `json:"road_id,omitempty"`
	RoadName string         `json:"road_name,omitempty"`
	Highway  string         `json:"highway,omitempty"`
}

// HasDistance reports whether a nearest-road distance was resolved.
func (e Enriched) HasDistance() bool {
	return e.Distance != nil
}

// Float64 returns a pointer to v.
func Float64(v float64) *float64 {
	return &v
}
