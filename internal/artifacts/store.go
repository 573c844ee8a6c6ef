package artifacts

import (
	"context"
	"fmt"
	"path"

	lconfig "github.com/lgrosjean/baynext-ml/pkg/config"
)

const (
	BackendS3    = "s3"
	BackendLocal = "local"
)

var ErrUnknownBackend = fmt.Errorf("unknown artifact backend")

// Store is a flat blob store for run artifacts.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]string, error)
}

type Config struct {
	Backend   string `env:"ARTIFACT_BACKEND" envDefault:"s3"`
	Bucket    string `env:"ARTIFACT_BUCKET" envDefault:"baynext"`
	LocalPath string `env:"ARTIFACT_LOCAL_PATH" envDefault:"artifacts"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func NewStore(cfg *Config) (Store, error) {
	switch cfg.Backend {
	case BackendS3:
		return NewS3Store(cfg)
	case BackendLocal:
		return NewLocalStore(cfg.LocalPath), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// RunPrefix is the key prefix all artifacts of one run live under.
func RunPrefix(experimentId, runId string) string {
	return path.Join("experiments", experimentId, "runs", runId, "artifacts")
}
