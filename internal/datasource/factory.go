package datasource

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/xc-ratings/internal/config"
	"github.com/yourusername/xc-ratings/internal/observation"
)

// NewPageSource returns the configured observation source. db is used for the
// postgres source type and may be nil otherwise.
func NewPageSource(cfg config.SourceConfig, db observation.PageSource, logger *logrus.Logger) (observation.PageSource, error) {
	switch cfg.Type {
	case config.SourcePostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres source requires a database connection")
		}
		return db, nil

	case config.SourceHTTP:
		if cfg.HTTP.BaseURL == "" {
			return nil, fmt.Errorf("results API base URL is required")
		}
		httpCfg := DefaultHTTPClientConfig()
		if cfg.HTTP.Timeout > 0 {
			httpCfg.Timeout = cfg.HTTP.Timeout
		}
		httpCfg.MaxRetries = cfg.HTTP.MaxRetries
		if cfg.HTTP.RequestsPerSecond > 0 {
			httpCfg.RateLimit = cfg.HTTP.RequestsPerSecond
		}
		if cfg.HTTP.Burst > 0 {
			httpCfg.Burst = cfg.HTTP.Burst
		}
		client := NewRateLimitedHTTPClient(httpCfg, logger)
		return NewResultsAPISource(client, cfg.HTTP.BaseURL, cfg.HTTP.APIKey, logger), nil

	default:
		return nil, fmt.Errorf("unknown data source type: %s", cfg.Type)
	}
}
