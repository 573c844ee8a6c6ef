package config

import (
	lconfig "github.com/lgrosjean/baynext-ml/pkg/config"
)

// Config is process-level configuration read from the environment.
// Pipeline behavior lives in PipelineConfig, loaded from the YAML file
// named here.
type Config struct {
	Migrate          bool   `env:"MIGRATE" envDefault:"true"`
	MigrationVersion *uint  `env:"MIGRATION_VERSION"`
	PipelineFile     string `env:"BAYNEXT_CONFIG" envDefault:"baynext.yaml"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
