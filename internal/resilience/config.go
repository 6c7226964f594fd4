package resilience

import (
	"time"

	"github.com/sells-group/roadprox-cli/internal/config"
)

// FromRetryConfig converts config values to a RetryConfig, keeping defaults
// for unset fields.
func FromRetryConfig(c config.ResilienceConfig) RetryConfig {
	cfg := DefaultRetryConfig()
	if c.MaxAttempts > 0 {
		cfg.MaxAttempts = c.MaxAttempts
	}
	if c.InitialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(c.InitialBackoffMs) * time.Millisecond
	}
	if c.MaxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(c.MaxBackoffMs) * time.Millisecond
	}
	if c.Multiplier > 0 {
		cfg.Multiplier = c.Multiplier
	}
	if c.JitterFraction >= 0 {
		cfg.JitterFraction = c.JitterFraction
	}
	return cfg
}

// FromBreakerConfig converts config values to a BreakerConfig. A zero
// failure threshold yields a disabled breaker.
func FromBreakerConfig(c config.ResilienceConfig) BreakerConfig {
	cfg := DefaultBreakerConfig()
	cfg.FailureThreshold = c.FailureThreshold
	if c.ResetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(c.ResetTimeoutSecs) * time.Second
	}
	return cfg
}
