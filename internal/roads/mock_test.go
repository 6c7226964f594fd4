package roads

import (
	"context"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/roadprox-cli/pkg/geo"
	"github.com/sells-group/roadprox-cli/pkg/overpass"
)

// fakeOverpass implements overpass.Client for testing.
type fakeOverpass struct {
	ways   []overpass.Way
	errs   []error
	calls  int
	radius float64
	tag    string
}

func (f *fakeOverpass) WaysAround(_ context.Context, _ geo.Point, radiusMeters float64, tag string) ([]overpass.Way, error) {
	f.calls++
	f.radius = radiusMeters
	f.tag = tag
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.ways, nil
}

// fakeResolver implements Resolver for testing.
type fakeResolver struct {
	road  *Road
	err   error
	calls int
}

func (f *fakeResolver) NearestRoad(_ context.Context, _ geo.Point) (*Road, error) {
	f.calls++
	return f.road, f.err
}

// fakeRedis implements redisCmdable over a map.
type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setKeys []string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	f.setKeys = append(f.setKeys, key)
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = value.(string)
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

// northOf returns the point d meters due north of p.
func northOf(p geo.Point, d float64) geo.Point {
	return geo.Point{Lat: p.Lat + d/geo.EarthRadiusMeters*180/math.Pi, Lon: p.Lon}
}

func wayThrough(id int64, tags map[string]string, points ...geo.Point) overpass.Way {
	flat := make([]float64, 0, len(points)*2)
	for _, p := range points {
		flat = append(flat, p.Lon, p.Lat)
	}
	return overpass.Way{ID: id, Tags: tags, Geometry: geom.NewLineStringFlat(geom.XY, flat)}
}
