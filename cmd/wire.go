package main

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/roadprox-cli/internal/archive"
	"github.com/sells-group/roadprox-cli/internal/config"
	"github.com/sells-group/roadprox-cli/internal/resilience"
	"github.com/sells-group/roadprox-cli/internal/roads"
	"github.com/sells-group/roadprox-cli/internal/warehouse"
	"github.com/sells-group/roadprox-cli/pkg/overpass"
)

func warehouseTables(c *config.Config) warehouse.Tables {
	return warehouse.Tables{
		Source:          c.Warehouse.SourceTable,
		Dest:            c.Warehouse.DestTable,
		Limit:           c.Warehouse.FetchLimit,
		UnprocessedOnly: c.Warehouse.UnprocessedOnly,
		ProcessedColumn: c.Warehouse.ProcessedColumn,
	}
}

// initWarehouse opens the configured warehouse backend.
func initWarehouse(ctx context.Context, c *config.Config) (warehouse.Warehouse, error) {
	tables := warehouseTables(c)
	switch c.Warehouse.Driver {
	case "bigquery":
		return warehouse.NewBigQuery(ctx, c.Warehouse.Project, c.Warehouse.CredentialsFile, tables)
	case "postgres":
		return warehouse.NewPostgres(ctx, c.Warehouse.DatabaseURL, tables)
	case "sqlite":
		return warehouse.NewSQLite(c.Warehouse.DatabaseURL, tables)
	default:
		return nil, eris.Errorf("unsupported warehouse driver: %s", c.Warehouse.Driver)
	}
}

// initResolver builds the Overpass resolver, wrapped in the Redis cache when
// one is configured. A cache that cannot be reached is skipped. It also
// returns the radius actually queried and a func releasing the cache
// connection.
func initResolver(ctx context.Context, c *config.Config) (roads.Resolver, float64, func()) {
	client := overpass.NewClient(
		overpass.WithBaseURL(c.Overpass.URL),
		overpass.WithTimeout(c.Overpass.Timeout()),
		overpass.WithUserAgent(c.Overpass.UserAgent),
	)

	retry := resilience.FromRetryConfig(c.Resilience)
	retry.OnRetry = resilience.RetryLogger("overpass")
	opts := []roads.Option{
		roads.WithRadius(c.Overpass.RadiusMeters),
		roads.WithTag(c.Overpass.HighwayTag),
		roads.WithRetry(retry),
	}
	if b := resilience.NewBreaker(resilience.FromBreakerConfig(c.Resilience)); b != nil {
		opts = append(opts, roads.WithBreaker(b))
	}
	resolver := roads.NewOverpassResolver(client, opts...)
	radius := resolver.Radius()

	if c.Cache.RedisURL == "" {
		return resolver, radius, func() {}
	}

	rc, err := roads.OpenRedis(ctx, c.Cache.RedisURL)
	if err != nil {
		zap.L().Warn("road cache unavailable, continuing without it", zap.Error(err))
		return resolver, radius, func() {}
	}
	scope := c.Overpass.HighwayTag + ":" + strconv.FormatFloat(radius, 'f', -1, 64)
	cached := roads.NewCachedResolver(resolver, roads.NewRedisCache(rc, c.Cache.TTL()), scope, c.Cache.Precision)
	return cached, radius, func() { _ = rc.Close() }
}

// initArchiver returns nil when no archive endpoint is configured.
func initArchiver(c *config.Config) (archive.Archiver, error) {
	if c.Archive.Endpoint == "" {
		return nil, nil
	}
	a, err := archive.NewMinio(c.Archive)
	if err != nil {
		return nil, err
	}
	return a, nil
}
