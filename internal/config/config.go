package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"DP_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DP_DB_MAX_CONNS" default:"8"`

	// Source document settings. The document is exported twice per run,
	// once as plain text and once as HTML markup.
	GoogleDocID    string `envconfig:"GOOGLE_DOC_ID" default:""`
	GoogleAPIToken string `envconfig:"GOOGLE_API_TOKEN" default:""`

	// Lock file guarding against overlapping ingestion runs.
	IngestLockPath string `envconfig:"INGEST_LOCK_PATH" default:"digest-pipeline.lock"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DP_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DP_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DP_DB_MIN_CONNS (%d) cannot exceed DP_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if strings.TrimSpace(c.IngestLockPath) == "" {
		return fmt.Errorf("INGEST_LOCK_PATH is required")
	}
	return nil
}
