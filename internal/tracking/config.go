package tracking

import lconfig "github.com/lgrosjean/baynext-ml/pkg/config"

type Config struct {
	TrackingURI string `env:"MLFLOW_TRACKING_URI" envDefault:"http://localhost:5001"`
}

func NewConfigFromEnv() (*Config, error) {
	var cfg Config
	err := lconfig.Parse(&cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
