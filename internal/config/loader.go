package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"github.com/yourusername/xc-ratings/internal/calibration"
	"github.com/yourusername/xc-ratings/internal/observation"
)

const (
	// EnvPrefix prefixes every environment override, e.g. XC_RATINGS_CALIBRATION_WORKERS
	EnvPrefix         = "XC_RATINGS"
	defaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return unmarshal(v)
}

// LoadWithDefaults is Load where a missing file falls back to defaults and environment
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return unmarshal(v)
}

// ReloadFromEnv replaces cfg with the file named by XC_RATINGS_CONFIG_PATH, if set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(EnvPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	params := calibration.DefaultParams()
	accessor := observation.DefaultOptions()

	v.SetDefault("app.name", "xc-ratings")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("source.type", SourcePostgres)
	v.SetDefault("source.http.timeout", "30s")
	v.SetDefault("source.http.max_retries", 3)
	v.SetDefault("source.http.requests_per_second", 5.0)
	v.SetDefault("source.http.burst", 5)

	v.SetDefault("calibration.min_shared_athletes", params.MinSharedAthletes)
	v.SetDefault("calibration.confidence_saturation_count", params.ConfidenceSaturationCount)
	v.SetDefault("calibration.max_variance_penalty", params.MaxVariancePenalty)
	v.SetDefault("calibration.outlier_threshold", params.OutlierThreshold)
	v.SetDefault("calibration.improvement_rate", params.ImprovementRate)
	v.SetDefault("calibration.improvement_interval_days", 14)
	v.SetDefault("calibration.method", string(params.Method))
	v.SetDefault("calibration.high_confidence_threshold", params.HighConfidenceThreshold)
	v.SetDefault("calibration.workers", 4)
	v.SetDefault("calibration.page_size", accessor.PageSize)
	v.SetDefault("calibration.course_timeout", "60s")
	v.SetDefault("calibration.fetch_retry_attempts", accessor.RetryAttempts)
	v.SetDefault("calibration.fetch_retry_backoff", accessor.RetryBackoff.String())

	v.SetDefault("cache.ttl", accessor.CacheTTL.String())

	v.SetDefault("schedule.enabled", false)
	v.SetDefault("schedule.cron", "0 3 * * 1")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("secrets.enabled", false)
	v.SetDefault("secrets.region", "")
	v.SetDefault("secrets.secret_name", "")
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}
