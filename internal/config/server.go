package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	// Empty runs on the in-memory store.
	PostgresDSN string `env:"POSTGRES_DSN"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`
	RedisURL    string `env:"REDIS_URL"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	ClickRatePerSec float64 `env:"CLICK_RATE_PER_SEC" envDefault:"5"`
	ClickBurst      int     `env:"CLICK_BURST" envDefault:"3"`

	SeedDefaults  bool `env:"SEED_DEFAULTS" envDefault:"true"`
	MCPEnabled    bool `env:"MCP_ENABLED" envDefault:"true"`
	EventBufferSz int  `env:"EVENT_BUFFER_SIZE" envDefault:"500"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
