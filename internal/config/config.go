// Package config loads the intrusive CLI configuration from file, environment and defaults.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// Config is the top-level configuration struct for the intrusive CLI.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Stress        StressConfig        `mapstructure:"stress"`
	Bench         BenchConfig         `mapstructure:"bench"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// StressConfig holds the randomized invariant run settings.
type StressConfig struct {
	Seed         int64  `mapstructure:"seed"`
	Permutations int    `mapstructure:"permutations"`
	Keys         int    `mapstructure:"keys"`
	Workers      int    `mapstructure:"workers"`
	VerifyEvery  int    `mapstructure:"verify_every"`
	HashBuckets  int    `mapstructure:"hash_buckets"`
	Timeout      string `mapstructure:"timeout"`
}

// BenchConfig holds the benchmark settings.
type BenchConfig struct {
	Sizes      []int  `mapstructure:"sizes"`
	Rounds     int    `mapstructure:"rounds"`
	Chart      string `mapstructure:"chart"`
	ArenaLimit string `mapstructure:"arena_limit"`
}

// ObservabilityConfig holds logging, tracing and metrics settings.
type ObservabilityConfig struct {
	LogLevel     string            `mapstructure:"log_level"`
	LogJSON      bool              `mapstructure:"log_json"`
	OTLPEndpoint string            `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool              `mapstructure:"otlp_insecure"`
	OTLPHeaders  map[string]string `mapstructure:"otlp_headers"`
	SampleRatio  float64           `mapstructure:"sample_ratio"`
	MetricsAddr  string            `mapstructure:"metrics_addr"`
	Environment  string            `mapstructure:"environment"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidPermutations indicates the permutation count is not positive.
	ErrInvalidPermutations = errors.New("stress.permutations must be positive")
	// ErrInvalidKeys indicates the key count is not positive.
	ErrInvalidKeys = errors.New("stress.keys must be positive")
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("stress.workers must be non-negative")
	// ErrInvalidVerifyEvery indicates the verification period is not positive.
	ErrInvalidVerifyEvery = errors.New("stress.verify_every must be positive")
	// ErrInvalidHashBuckets indicates the bucket count is not positive.
	ErrInvalidHashBuckets = errors.New("stress.hash_buckets must be positive")
	// ErrInvalidTimeout indicates the timeout is not a non-negative duration.
	ErrInvalidTimeout = errors.New("stress.timeout must be a non-negative duration")
	// ErrInvalidBenchSizes indicates a non-positive benchmark size.
	ErrInvalidBenchSizes = errors.New("bench.sizes must be positive")
	// ErrInvalidBenchRounds indicates the round count is not positive.
	ErrInvalidBenchRounds = errors.New("bench.rounds must be positive")
	// ErrInvalidArenaLimit indicates the arena limit is not a byte size.
	ErrInvalidArenaLimit = errors.New("bench.arena_limit must be a byte size")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("observability.log_level must be debug, info, warn or error")
	// ErrInvalidSampleRatio indicates the sample ratio is out of range.
	ErrInvalidSampleRatio = errors.New("observability.sample_ratio must be between 0 and 1")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	stressErr := c.validateStress()
	if stressErr != nil {
		return stressErr
	}

	benchErr := c.validateBench()
	if benchErr != nil {
		return benchErr
	}

	return c.validateObservability()
}

// StressTimeout returns the parsed stress timeout. Zero means no limit.
func (c *Config) StressTimeout() time.Duration {
	timeout, err := time.ParseDuration(c.Stress.Timeout)
	if err != nil {
		return 0
	}

	return timeout
}

// BenchArenaLimit returns the parsed arena limit in bytes. Zero means no limit.
func (c *Config) BenchArenaLimit() uint64 {
	limit, err := humanize.ParseBytes(c.Bench.ArenaLimit)
	if err != nil {
		return 0
	}

	return limit
}

// SlogLevel maps the configured log level onto slog.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.Observability.LogLevel))
	if err != nil {
		return slog.LevelInfo
	}

	return level
}

func (c *Config) validateStress() error {
	if c.Stress.Permutations <= 0 {
		return ErrInvalidPermutations
	}

	if c.Stress.Keys <= 0 {
		return ErrInvalidKeys
	}

	if c.Stress.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Stress.VerifyEvery <= 0 {
		return ErrInvalidVerifyEvery
	}

	if c.Stress.HashBuckets <= 0 {
		return ErrInvalidHashBuckets
	}

	if c.Stress.Timeout != "" {
		timeout, err := time.ParseDuration(c.Stress.Timeout)
		if err != nil || timeout < 0 {
			return fmt.Errorf("%w: %q", ErrInvalidTimeout, c.Stress.Timeout)
		}
	}

	return nil
}

func (c *Config) validateBench() error {
	for _, size := range c.Bench.Sizes {
		if size <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidBenchSizes, size)
		}
	}

	if c.Bench.Rounds <= 0 {
		return ErrInvalidBenchRounds
	}

	if c.Bench.ArenaLimit != "" {
		_, err := humanize.ParseBytes(c.Bench.ArenaLimit)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArenaLimit, err)
		}
	}

	return nil
}

func (c *Config) validateObservability() error {
	switch c.Observability.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Observability.LogLevel)
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}

	return nil
}
