package roads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadprox-cli/pkg/geo"
)

// Cache stores resolved lookups. A hit with a nil Road is a cached ErrNoRoad.
type Cache interface {
	Get(ctx context.Context, key string) (road *Road, hit bool, err error)
	Set(ctx context.Context, key string, road *Road) error
}

// CacheKey quantises p to precision decimal places under scope, so repeated
// coordinates from a rerun hit the same entry.
func CacheKey(scope string, p geo.Point, precision int) string {
	return fmt.Sprintf("roadprox:nearest:%s:%.*f:%.*f", scope, precision, p.Lat, precision, p.Lon)
}

// CachedResolver consults a Cache before delegating to another Resolver.
// Map service failures are never cached.
type CachedResolver struct {
	next      Resolver
	cache     Cache
	scope     string
	precision int
}

// NewCachedResolver wraps next with cache. scope should change whenever
// the lookup parameters (radius, tag) change.
func NewCachedResolver(next Resolver, cache Cache, scope string, precision int) *CachedResolver {
	if precision <= 0 {
		precision = 6
	}
	return &CachedResolver{next: next, cache: cache, scope: scope, precision: precision}
}

// NearestRoad implements Resolver.
func (c *CachedResolver) NearestRoad(ctx context.Context, p geo.Point) (*Road, error) {
	key := CacheKey(c.scope, p, c.precision)

	road, hit, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		zap.L().Warn("road cache read failed", zap.String("key", key), zap.Error(err))
	case hit && road == nil:
		return nil, ErrNoRoad
	case hit:
		return road, nil
	}

	road, err = c.next.NearestRoad(ctx, p)
	if err != nil && !errors.Is(err, ErrNoRoad) {
		return nil, err
	}

	if setErr := c.cache.Set(ctx, key, road); setErr != nil {
		zap.L().Warn("road cache write failed", zap.String("key", key), zap.Error(setErr))
	}
	return road, err
}

// redisCmdable is the subset of *redis.Client the cache needs.
type redisCmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type cacheEntry struct {
	Found bool  `json:"found"`
	Road  *Road `json:"road,omitempty"`
}

// RedisCache stores lookups as JSON strings with a TTL.
type RedisCache struct {
	rc  redisCmdable
	ttl time.Duration
}

// NewRedisCache creates a RedisCache. A zero ttl keeps entries forever.
func NewRedisCache(rc redisCmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{rc: rc, ttl: ttl}
}

// OpenRedis connects to the Redis server at url and pings it.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "roads: parse redis url")
	}
	rc := redis.NewClient(opts)
	if err := rc.Ping(ctx).Err(); err != nil {
		rc.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "roads: redis ping")
	}
	return rc, nil
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) (*Road, bool, error) {
	s, err := c.rc.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "roads: redis get")
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(s), &entry); err != nil {
		return nil, false, eris.Wrap(err, "roads: decode cache entry")
	}
	if !entry.Found {
		return nil, true, nil
	}
	return entry.Road, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, road *Road) error {
	b, err := json.Marshal(cacheEntry{Found: road != nil, Road: road})
	if err != nil {
		return eris.Wrap(err, "roads: encode cache entry")
	}
	if err := c.rc.Set(ctx, key, string(b), c.ttl).Err(); err != nil {
		return eris.Wrap(err, "roads: redis set")
	}
	return nil
}
