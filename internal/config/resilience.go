// Package config holds application-level configuration for the resilience
// layer. Settings are read from an optional YAML file with environment
// variable overrides, so deployments can tune pool sizing, cache TTLs and
// breaker thresholds without a rebuild.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	pkgconfig "applytrack/pkg/config"
)

// Duration wraps time.Duration for YAML decoding of values like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// PoolSettings configures the database resource pool.
type PoolSettings struct {
	MaxSize        int      `yaml:"max_size"`
	AcquireTimeout Duration `yaml:"acquire_timeout"`
}

// CacheSettings configures the search result cache.
type CacheSettings struct {
	TTL        Duration `yaml:"ttl"`
	MaxEntries int      `yaml:"max_entries"`
}

// BreakerSettings configures one named circuit breaker.
type BreakerSettings struct {
	FailureThreshold uint32   `yaml:"failure_threshold"`
	RecoveryTimeout  Duration `yaml:"recovery_timeout"`
	HalfOpenRequests uint32   `yaml:"half_open_requests"`

	// CountPermanent controls whether non-retryable failures count toward
	// the failure threshold. Defaults to true, matching the historical
	// behavior of counting every failure that passes through the breaker.
	CountPermanent *bool `yaml:"count_permanent"`
}

// CountsPermanent reports the effective CountPermanent setting.
func (b BreakerSettings) CountsPermanent() bool {
	return b.CountPermanent == nil || *b.CountPermanent
}

// Resilience is the root configuration for the resilience layer.
type Resilience struct {
	Pool     PoolSettings               `yaml:"pool"`
	Cache    CacheSettings              `yaml:"cache"`
	Breakers map[string]BreakerSettings `yaml:"breakers"`
}

// DefaultResilience returns the built-in configuration.
func DefaultResilience() Resilience {
	return Resilience{
		Pool: PoolSettings{
			MaxSize:        10,
			AcquireTimeout: Duration(5 * time.Second),
		},
		Cache: CacheSettings{
			TTL:        Duration(5 * time.Minute),
			MaxEntries: 1000,
		},
		Breakers: map[string]BreakerSettings{},
	}
}

// LoadResilience builds the resilience configuration. When path is non-empty
// the YAML file is loaded over the defaults; environment variables
// POOL_MAX_SIZE, POOL_ACQUIRE_TIMEOUT, CACHE_TTL and CACHE_MAX_ENTRIES
// override both.
func LoadResilience(path string) (Resilience, error) {
	cfg := DefaultResilience()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- path comes from deployment config
		if err != nil {
			return Resilience{}, fmt.Errorf("read resilience config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Resilience{}, fmt.Errorf("parse resilience config: %w", err)
		}
	}

	cfg.Pool.MaxSize = pkgconfig.GetEnvInt("POOL_MAX_SIZE", cfg.Pool.MaxSize)
	cfg.Pool.AcquireTimeout = Duration(pkgconfig.GetEnvDuration("POOL_ACQUIRE_TIMEOUT", cfg.Pool.AcquireTimeout.Std()))
	cfg.Cache.TTL = Duration(pkgconfig.GetEnvDuration("CACHE_TTL", cfg.Cache.TTL.Std()))
	cfg.Cache.MaxEntries = pkgconfig.GetEnvInt("CACHE_MAX_ENTRIES", cfg.Cache.MaxEntries)

	if err := cfg.Validate(); err != nil {
		return Resilience{}, err
	}
	return cfg, nil
}

// Validate checks the configuration's invariants.
func (c Resilience) Validate() error {
	if c.Pool.MaxSize <= 0 {
		return fmt.Errorf("pool.max_size must be positive, got %d", c.Pool.MaxSize)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.Pool.AcquireTimeout.Std()); err != nil {
		return fmt.Errorf("pool.acquire_timeout: %w", err)
	}
	if err := pkgconfig.ValidatePositiveDuration(c.Cache.TTL.Std()); err != nil {
		return fmt.Errorf("cache.ttl: %w", err)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be non-negative, got %d", c.Cache.MaxEntries)
	}
	for name, b := range c.Breakers {
		if err := pkgconfig.ValidatePositiveDuration(b.RecoveryTimeout.Std()); err != nil {
			return fmt.Errorf("breakers.%s.recovery_timeout: %w", name, err)
		}
	}
	return nil
}
