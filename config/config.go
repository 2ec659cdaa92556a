package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ApiBaseUrl  string        `envconfig:"TRIALMATCH_API_BASE_URL" default:"http://localhost:5000" required:"true"`
	HttpTimeout time.Duration `envconfig:"TRIALMATCH_HTTP_TIMEOUT" default:"60s"`
	AdminToken  string        `envconfig:"TRIALMATCH_ADMIN_TOKEN"`
	DefaultMode string        `envconfig:"TRIALMATCH_DEFAULT_MODE" default:"demo"`
	NumTrials   *int          `envconfig:"TRIALMATCH_NUM_TRIALS"`
	CacheSize   int           `envconfig:"TRIALMATCH_CACHE_SIZE" default:"256"`
}

func New() *Config {
	return &Config{}
}

func (c *Config) LoadFromEnv() error {
	return envconfig.Process("", c)
}

// NewConfig loads the configuration from the environment. It's used as an fx provider.
func NewConfig() (*Config, error) {
	cfg := New()
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}
