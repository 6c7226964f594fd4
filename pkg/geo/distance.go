package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

// EarthRadiusMeters is the mean Earth radius used for spherical distances.
const EarthRadiusMeters = 6371000.0

// Haversine returns the great-circle distance in meters between two points
// given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	// Rounding can push a marginally above 1 for near-antipodal inputs.
	if a > 1 {
		a = 1
	}

	return 2 * EarthRadiusMeters * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// NearestOnLines scans every vertex of every line and returns the smallest
// haversine distance from p, together with the index of the line that owns
// that vertex. Lines use XY layout with X=longitude and Y=latitude. ok is
// false when no line contributes a vertex.
func NearestOnLines(p Point, lines []*geom.LineString) (dist float64, idx int, ok bool) {
	dist = math.Inf(1)
	idx = -1

	for i, ls := range lines {
		if ls == nil {
			continue
		}
		for j := 0; j < ls.NumCoords(); j++ {
			c := ls.Coord(j)
			d := Haversine(p.Lat, p.Lon, c.Y(), c.X())
			if d < dist {
				dist = d
				idx = i
			}
		}
	}

	if idx < 0 {
		return 0, -1, false
	}
	return dist, idx, true
}
