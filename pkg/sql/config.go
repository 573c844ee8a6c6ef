package lsql

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ghodss/yaml"

	lconfig "github.com/lgrosjean/baynext-ml/pkg/config"
)

type Config struct {
	ConfigSecrets

	Engine         string        `env:"SQL_DB_ENGINE" envDefault:"sqlite"`
	DatabaseName   string        `env:"SQL_DB_NAME" envDefault:"baynext"`
	Address        string        `env:"SQL_DB_ADDRESS" envDefault:""`
	Options        string        `env:"SQL_DB_OPTIONS" envDefault:""`
	MaxLifetime    time.Duration `env:"SQL_DB_MAX_LIFETIME" envDefault:"30m"`
	MaxIdleConns   int           `env:"SQL_DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxOpenConns   int           `env:"SQL_DB_MAX_OPEN_CONNS" envDefault:"20"`
	ConfigLocation string        `env:"SQL_DB_CONFIG_LOCATION"`
}

// ConfigSecrets can be loaded separately from a mounted secrets file, see
// Config.ConfigLocation.
type ConfigSecrets struct {
	Username string `env:"SQL_DB_USERNAME"`
	Password string `env:"SQL_DB_PASSWORD"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}

	if cfg.ConfigLocation != "" {
		err = cfg.loadFile()
		if err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// DriverName maps the configured engine onto the registered database/sql
// driver: pgx for postgres, modernc for "sqlite", mattn for "sqlite3".
func (cfg *Config) DriverName() string {
	switch strings.ToLower(cfg.Engine) {
	case "postgres":
		return "pgx"
	case "sqlite":
		return "sqlite"
	case "sqlite3":
		return "sqlite3"
	default:
		return ""
	}
}

func (cfg *Config) FullAddress() string {
	switch strings.ToLower(cfg.Engine) {
	case "postgres":
		address := fmt.Sprintf("postgres://%s:%s@%s/%s",
			cfg.Username,
			cfg.Password,
			cfg.Address,
			cfg.DatabaseName)
		if cfg.Options != "" {
			address = address + "?" + cfg.Options
		}
		return address
	case "sqlite", "sqlite3":
		if cfg.Address != "" {
			return cfg.Address
		}
		return ":memory:"
	default:
		return ""
	}
}

func (cfg *Config) loadFile() error {
	f, err := os.Open(cfg.ConfigLocation)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, &cfg.ConfigSecrets); err != nil {
		return err
	}

	return nil
}
