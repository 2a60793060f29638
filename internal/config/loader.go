package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// configName is the file searched for in CWD and $HOME, without extension.
	configName = ".intrusive"
	configType = "yaml"

	// envPrefix turns stress.keys into INTRUSIVE_STRESS_KEYS.
	envPrefix = "INTRUSIVE"
)

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	for key, value := range defaults() {
		viperCfg.SetDefault(key, value)
	}

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// defaults lists every key with its built-in value. Keys missing here are not
// bound to environment variables.
func defaults() map[string]any {
	return map[string]any{
		"stress.seed":         DefaultStressSeed,
		"stress.permutations": DefaultStressPermutations,
		"stress.keys":         DefaultStressKeys,
		"stress.workers":      DefaultStressWorkers,
		"stress.verify_every": DefaultStressVerifyEvery,
		"stress.hash_buckets": DefaultStressHashBuckets,
		"stress.timeout":      DefaultStressTimeout,

		"bench.sizes":       DefaultBenchSizes(),
		"bench.rounds":      DefaultBenchRounds,
		"bench.chart":       DefaultBenchChart,
		"bench.arena_limit": DefaultBenchArenaLimit,

		"observability.log_level":     DefaultLogLevel,
		"observability.log_json":      DefaultLogJSON,
		"observability.otlp_endpoint": DefaultOTLPEndpoint,
		"observability.otlp_insecure": DefaultOTLPInsecure,
		"observability.sample_ratio":  DefaultSampleRatio,
		"observability.metrics_addr":  DefaultMetricsAddr,
		"observability.environment":   DefaultEnvironment,
	}
}
