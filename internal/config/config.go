// Package config provides configuration management for the course rating calibrator.
package config

import (
	"fmt"
	"time"

	"github.com/yourusername/xc-ratings/internal/calibration"
	"github.com/yourusername/xc-ratings/internal/observation"
)

// Config represents the complete application configuration
type Config struct {
	App         AppConfig         `mapstructure:"app" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Source      SourceConfig      `mapstructure:"source" validate:"required"`
	Calibration CalibrationConfig `mapstructure:"calibration" validate:"required"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Schedule    ScheduleConfig    `mapstructure:"schedule"`
	Metrics     MetricsConfig     `mapstructure:"metrics" validate:"required"`
	Secrets     SecretsConfig     `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	Operator    string `mapstructure:"operator"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"gte=0"`
}

// SourceConfig selects where observations are read from
type SourceConfig struct {
	Type string           `mapstructure:"type" validate:"required,sourcetype"`
	HTTP HTTPSourceConfig `mapstructure:"http"`
}

// HTTPSourceConfig configures the results API source
type HTTPSourceConfig struct {
	BaseURL           string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"gte=0"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=0"`
}

// CalibrationConfig holds run parameters and execution limits
type CalibrationConfig struct {
	MinSharedAthletes         int           `mapstructure:"min_shared_athletes" validate:"gte=1"`
	ConfidenceSaturationCount int           `mapstructure:"confidence_saturation_count" validate:"gte=1"`
	MaxVariancePenalty        float64       `mapstructure:"max_variance_penalty" validate:"gte=0,lte=1"`
	OutlierThreshold          float64       `mapstructure:"outlier_threshold" validate:"gt=0"`
	ImprovementRate           float64       `mapstructure:"improvement_rate" validate:"gte=0"`
	ImprovementIntervalDays   int           `mapstructure:"improvement_interval_days" validate:"gte=1"`
	Method                    string        `mapstructure:"method" validate:"required,method"`
	HighConfidenceThreshold   float64       `mapstructure:"high_confidence_threshold" validate:"gte=0,lte=1"`
	Workers                   int           `mapstructure:"workers" validate:"gte=1,lte=64"`
	PageSize                  int           `mapstructure:"page_size" validate:"gte=1,lte=5000"`
	CourseTimeout             time.Duration `mapstructure:"course_timeout" validate:"gt=0"`
	FetchRetryAttempts        int           `mapstructure:"fetch_retry_attempts" validate:"gte=1,lte=10"`
	FetchRetryBackoff         time.Duration `mapstructure:"fetch_retry_backoff" validate:"gt=0"`
}

// CacheConfig configures the per-run observation cache
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"gte=0"`
}

// ScheduleConfig configures recurring runs
type ScheduleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Cron    string `mapstructure:"cron" validate:"omitempty,cron"`
}

// MetricsConfig represents metrics and health endpoint configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SecretsConfig points at an AWS Secrets Manager secret
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Params converts the calibration section into run parameters
func (c *CalibrationConfig) Params() calibration.Params {
	return calibration.Params{
		MinSharedAthletes:         c.MinSharedAthletes,
		ConfidenceSaturationCount: c.ConfidenceSaturationCount,
		MaxVariancePenalty:        c.MaxVariancePenalty,
		OutlierThreshold:          c.OutlierThreshold,
		ImprovementRate:           c.ImprovementRate,
		ImprovementInterval:       time.Duration(c.ImprovementIntervalDays) * 24 * time.Hour,
		Method:                    calibration.MethodSelection(c.Method),
		HighConfidenceThreshold:   c.HighConfidenceThreshold,
	}
}

// AccessorOptions converts fetch limits and cache settings into accessor options
func (c *Config) AccessorOptions() observation.Options {
	opts := observation.DefaultOptions()
	opts.PageSize = c.Calibration.PageSize
	opts.RetryAttempts = c.Calibration.FetchRetryAttempts
	opts.RetryBackoff = c.Calibration.FetchRetryBackoff
	if c.Cache.TTL > 0 {
		opts.CacheTTL = c.Cache.TTL
	}
	return opts
}
