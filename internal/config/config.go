package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Warehouse  WarehouseConfig  `yaml:"warehouse" mapstructure:"warehouse"`
	Overpass   OverpassConfig   `yaml:"overpass" mapstructure:"overpass"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Archive    ArchiveConfig    `yaml:"archive" mapstructure:"archive"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// WarehouseConfig selects the warehouse backend and the source/destination tables.
type WarehouseConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"`
	Project         string `yaml:"project" mapstructure:"project"`
	CredentialsFile string `yaml:"credentials_file" mapstructure:"credentials_file"`
	DatabaseURL     string `yaml:"database_url" mapstructure:"database_url"`
	SourceTable     string `yaml:"source_table" mapstructure:"source_table"`
	DestTable       string `yaml:"dest_table" mapstructure:"dest_table"`
	FetchLimit      int    `yaml:"fetch_limit" mapstructure:"fetch_limit"`
	UnprocessedOnly bool   `yaml:"unprocessed_only" mapstructure:"unprocessed_only"`
	ProcessedColumn string `yaml:"processed_column" mapstructure:"processed_column"`
}

// OverpassConfig configures the Overpass map service client and pacing.
type OverpassConfig struct {
	URL          string  `yaml:"url" mapstructure:"url"`
	RadiusMeters float64 `yaml:"radius_meters" mapstructure:"radius_meters"`
	HighwayTag   string  `yaml:"highway_tag" mapstructure:"highway_tag"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent    string  `yaml:"user_agent" mapstructure:"user_agent"`
	IntervalMs   int     `yaml:"interval_ms" mapstructure:"interval_ms"`
	Burst        int     `yaml:"burst" mapstructure:"burst"`
}

// Interval returns the pacing interval between map service calls.
func (c OverpassConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// Timeout returns the HTTP timeout for a single map service call.
func (c OverpassConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// ResilienceConfig configures retries and the circuit breaker around the map service.
type ResilienceConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// CacheConfig configures the Redis distance cache. Empty RedisURL disables it.
type CacheConfig struct {
	RedisURL  string `yaml:"redis_url" mapstructure:"redis_url"`
	TTLHours  int    `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	Precision int    `yaml:"precision" mapstructure:"precision"`
}

// TTL returns the cache entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// ArchiveConfig configures the S3-compatible run archive. Empty Endpoint disables it.
type ArchiveConfig struct {
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	Bucket    string `yaml:"bucket" mapstructure:"bucket"`
	Prefix    string `yaml:"prefix" mapstructure:"prefix"`
	UseSSL    bool   `yaml:"use_ssl" mapstructure:"use_ssl"`
}

// Load reads configuration from an optional .env file, config.yaml, and
// ROADPROX_* environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ROADPROX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("warehouse.driver", "bigquery")
	v.SetDefault("warehouse.project", "")
	v.SetDefault("warehouse.credentials_file", "credentials.json")
	v.SetDefault("warehouse.database_url", "")
	v.SetDefault("warehouse.source_table", "")
	v.SetDefault("warehouse.dest_table", "")
	v.SetDefault("warehouse.fetch_limit", 1000)
	v.SetDefault("warehouse.unprocessed_only", false)
	v.SetDefault("warehouse.processed_column", "processed")
	v.SetDefault("overpass.url", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.radius_meters", 10.0)
	v.SetDefault("overpass.highway_tag", "highway")
	v.SetDefault("overpass.timeout_secs", 60)
	v.SetDefault("overpass.user_agent", "roadprox-cli/1.0")
	v.SetDefault("overpass.interval_ms", 1000)
	v.SetDefault("overpass.burst", 1)
	v.SetDefault("resilience.max_attempts", 1)
	v.SetDefault("resilience.initial_backoff_ms", 500)
	v.SetDefault("resilience.max_backoff_ms", 30000)
	v.SetDefault("resilience.multiplier", 2.0)
	v.SetDefault("resilience.jitter_fraction", 0.25)
	v.SetDefault("resilience.failure_threshold", 0)
	v.SetDefault("resilience.reset_timeout_secs", 30)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl_hours", 720)
	v.SetDefault("cache.precision", 6)
	v.SetDefault("archive.endpoint", "")
	v.SetDefault("archive.access_key", "")
	v.SetDefault("archive.secret_key", "")
	v.SetDefault("archive.bucket", "")
	v.SetDefault("archive.prefix", "runs")
	v.SetDefault("archive.use_ssl", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings needed for a run are present.
func (c *Config) Validate() error {
	var problems []string

	switch c.Warehouse.Driver {
	case "bigquery":
		if c.Warehouse.CredentialsFile == "" {
			problems = append(problems, "warehouse.credentials_file is required for bigquery")
		}
	case "postgres", "sqlite":
		if c.Warehouse.DatabaseURL == "" {
			problems = append(problems, "warehouse.database_url is required for "+c.Warehouse.Driver)
		}
	default:
		problems = append(problems, "warehouse.driver must be one of bigquery, postgres, sqlite")
	}
	if c.Warehouse.SourceTable == "" {
		problems = append(problems, "warehouse.source_table is required")
	}
	if c.Warehouse.DestTable == "" {
		problems = append(problems, "warehouse.dest_table is required")
	}
	if c.Warehouse.FetchLimit <= 0 || c.Warehouse.FetchLimit > 1000 {
		problems = append(problems, "warehouse.fetch_limit must be between 1 and 1000")
	}
	if c.Warehouse.UnprocessedOnly && c.Warehouse.ProcessedColumn == "" {
		problems = append(problems, "warehouse.processed_column is required when unprocessed_only is set")
	}
	if c.Overpass.URL == "" {
		problems = append(problems, "overpass.url is required")
	}
	if c.Overpass.RadiusMeters <= 0 {
		problems = append(problems, "overpass.radius_meters must be positive")
	}
	if c.Archive.Endpoint != "" && c.Archive.Bucket == "" {
		problems = append(problems, "archive.bucket is required when archive.endpoint is set")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Redacted returns a copy with credentials masked, safe to print.
func (c Config) Redacted() Config {
	out := c
	out.Warehouse.DatabaseURL = mask(out.Warehouse.DatabaseURL)
	out.Cache.RedisURL = mask(out.Cache.RedisURL)
	out.Archive.AccessKey = mask(out.Archive.AccessKey)
	out.Archive.SecretKey = mask(out.Archive.SecretKey)
	return out
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
