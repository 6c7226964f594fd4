// Package roads finds the distance from a coordinate to the nearest road.
package roads

import (
	"context"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/roadprox-cli/internal/resilience"
	"github.com/sells-group/roadprox-cli/pkg/geo"
	"github.com/sells-group/roadprox-cli/pkg/overpass"
)

// DefaultRadiusMeters is the search radius around each point.
const DefaultRadiusMeters = 10.0

// DefaultTag selects ways classified as roads.
const DefaultTag = "highway"

// Road is the nearest road found for a point.
type Road struct {
	DistanceMeters float64 `json:"distance_m"`
	WayID          int64   `json:"way_id"`
	Name           string  `json:"name,omitempty"`
	Highway        string  `json:"highway,omitempty"`
}

// Resolver finds the nearest road to a point. It returns ErrNoRoad when
// nothing is in range and an error matching ErrServiceUnavailable when the
// lookup itself failed.
type Resolver interface {
	NearestRoad(ctx context.Context, p geo.Point) (*Road, error)
}

// Option configures an OverpassResolver.
type Option func(*OverpassResolver)

// WithRadius sets the search radius in meters.
func WithRadius(meters float64) Option {
	return func(r *OverpassResolver) {
		if meters > 0 {
			r.radius = meters
		}
	}
}

// WithTag sets the OSM key ways must carry.
func WithTag(tag string) Option {
	return func(r *OverpassResolver) {
		if tag != "" {
			r.tag = tag
		}
	}
}

// WithRetry sets the retry policy for map service calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(r *OverpassResolver) {
		r.retry = cfg
	}
}

// WithBreaker guards map service calls with a circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(r *OverpassResolver) {
		r.breaker = b
	}
}

// OverpassResolver resolves nearest roads with the Overpass API.
type OverpassResolver struct {
	client  overpass.Client
	radius  float64
	tag     string
	retry   resilience.RetryConfig
	breaker *resilience.Breaker
}

// NewOverpassResolver creates a resolver backed by client.
func NewOverpassResolver(client overpass.Client, opts ...Option) *OverpassResolver {
	r := &OverpassResolver{
		client: client,
		radius: DefaultRadiusMeters,
		tag:    DefaultTag,
		retry:  resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Radius returns the search radius in meters.
func (r *OverpassResolver) Radius() float64 {
	return r.radius
}

// NearestRoad queries the ways around p and returns the closest one.
func (r *OverpassResolver) NearestRoad(ctx context.Context, p geo.Point) (*Road, error) {
	ways, err := resilience.DoVal(ctx, r.retry, func(ctx context.Context) ([]overpass.Way, error) {
		return resilience.Call(ctx, r.breaker, func(ctx context.Context) ([]overpass.Way, error) {
			return r.client.WaysAround(ctx, p, r.radius, r.tag)
		})
	})
	if err != nil {
		zap.L().Warn("overpass lookup failed",
			zap.Float64("lat", p.Lat),
			zap.Float64("lon", p.Lon),
			zap.Error(err),
		)
		return nil, &UnavailableError{Err: err}
	}

	road, err := NearestWay(p, ways)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("nearest road resolved",
		zap.Float64("lat", p.Lat),
		zap.Float64("lon", p.Lon),
		zap.Int("ways", len(ways)),
		zap.Float64("distance_m", road.DistanceMeters),
	)
	return road, nil
}

// NearestWay returns the way with the vertex closest to p. Ways without
// geometry are ignored; ErrNoRoad is returned when no vertex remains.
func NearestWay(p geo.Point, ways []overpass.Way) (*Road, error) {
	if len(ways) == 0 {
		return nil, ErrNoRoad
	}

	lines := make([]*geom.LineString, len(ways))
	for i, w := range ways {
		lines[i] = w.Geometry
	}

	dist, idx, ok := geo.NearestOnLines(p, lines)
	if !ok {
		return nil, ErrNoRoad
	}

	w := ways[idx]
	return &Road{
		DistanceMeters: dist,
		WayID:          w.ID,
		Name:           w.Name(),
		Highway:        w.Highway(),
	}, nil
}
