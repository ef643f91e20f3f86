package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/yourusername/xc-ratings/internal/calibration"
	"github.com/yourusername/xc-ratings/internal/models"
)

const (
	validConfigPath       = "testdata/valid_config.yaml"
	httpSourceConfigPath  = "testdata/http_source_config.yaml"
	nonexistentConfigPath = "testdata/nonexistent_config.yaml"
	expectedNoErrorMsg    = "expected no error, got %v"
)

func TestLoadConfigSuccess(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", "expanded_secret_value")

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.App.Name != "xc-ratings" {
		t.Errorf("expected app name 'xc-ratings', got '%s'", cfg.App.Name)
	}
	if cfg.Database.Password != "expanded_secret_value" {
		t.Errorf("expected expanded password, got '%s'", cfg.Database.Password)
	}
	if cfg.Calibration.CourseTimeout != 60*time.Second {
		t.Errorf("expected 60s course timeout, got %s", cfg.Calibration.CourseTimeout)
	}
	if cfg.Calibration.FetchRetryBackoff != 250*time.Millisecond {
		t.Errorf("expected 250ms backoff, got %s", cfg.Calibration.FetchRetryBackoff)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	if _, err := Load(nonexistentConfigPath); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	params := cfg.Calibration.Params()
	defaults := calibration.DefaultParams()
	if params != defaults {
		t.Errorf("expected default params %+v, got %+v", defaults, params)
	}
	if cfg.Calibration.Workers != 4 || cfg.Calibration.PageSize != 500 {
		t.Errorf("unexpected execution defaults: workers=%d page_size=%d", cfg.Calibration.Workers, cfg.Calibration.PageSize)
	}
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Setenv("XC_RATINGS_APP_NAME", "test-app")
	t.Setenv("XC_RATINGS_CALIBRATION_OUTLIER_THRESHOLD", "4.5")
	t.Setenv("XC_RATINGS_CALIBRATION_METHOD", "temporal")

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.App.Name != "test-app" {
		t.Errorf("expected app name from environment, got '%s'", cfg.App.Name)
	}
	if cfg.Calibration.OutlierThreshold != 4.5 {
		t.Errorf("expected outlier threshold 4.5, got %v", cfg.Calibration.OutlierThreshold)
	}
	if cfg.Calibration.Params().Method != calibration.SelectTemporal {
		t.Errorf("expected temporal method, got %s", cfg.Calibration.Method)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(httpSourceConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	if cfg.Calibration.MinSharedAthletes != calibration.DefaultMinSharedAthletes {
		t.Errorf("expected default min shared athletes, got %d", cfg.Calibration.MinSharedAthletes)
	}
	if cfg.Source.HTTP.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %s", cfg.Source.HTTP.Timeout)
	}
	if got := cfg.AccessorOptions().RetryAttempts; got != 3 {
		t.Errorf("expected 3 fetch attempts, got %d", got)
	}
}

func TestValidateSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"environment", func(c *Config) { c.App.Environment = "invalid" }, "development, staging, production"},
		{"log level", func(c *Config) { c.App.LogLevel = "trace" }, "debug, info, warn, error"},
		{"method", func(c *Config) { c.Calibration.Method = "A" }, "ratio, temporal, both"},
		{"source type", func(c *Config) { c.Source.Type = "csv" }, "postgres, http"},
		{"cron", func(c *Config) { c.Schedule.Cron = "every monday" }, "cron expression"},
		{"negative threshold", func(c *Config) { c.Calibration.OutlierThreshold = -1 }, "OutlierThreshold"},
		{"http without url", func(c *Config) { c.Source.Type = SourceHTTP }, "base_url"},
		{"production ssl", func(c *Config) { c.App.Environment = "production" }, "SSL"},
		{"idle connections", func(c *Config) { c.Database.MaxIdleConnections = 20 }, "max_idle_connections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(validConfigPath)
			if err != nil {
				t.Fatalf(expectedNoErrorMsg, err)
			}
			tt.mutate(cfg)

			err = Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestCalibrationParamsValidationIsConfigurationError(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	cfg.Calibration.ImprovementIntervalDays = 0

	err = cfg.Calibration.Params().Validate()
	if !models.IsConfigurationError(err) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestReloadFromEnv(t *testing.T) {
	cfg := &Config{}
	t.Setenv("XC_RATINGS_CONFIG_PATH", validConfigPath)

	if err := ReloadFromEnv(cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
	if cfg.Metrics.Port != 9090 {
		t.Errorf("expected reloaded config, got metrics port %d", cfg.Metrics.Port)
	}
}

func TestParseSecretData(t *testing.T) {
	out := &secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(`{"database_password":"pw","results_api_key":"key"}`),
	}

	secrets, err := parseSecretData(out)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	cfg := &Config{}
	ApplySecrets(cfg, secrets)
	if cfg.Database.Password != "pw" || cfg.Source.HTTP.APIKey != "key" {
		t.Errorf("secrets not applied: %+v", cfg)
	}

	if _, err := parseSecretData(&secretsmanager.GetSecretValueOutput{}); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestLoadSecretsDisabledIsNoop(t *testing.T) {
	cfg := &Config{}
	if err := LoadSecrets(context.Background(), cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
}
