package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type OracleConfig struct {
	// Mode is "heuristic" or "openai".
	Mode    string        `env:"ORACLE_MODE" envDefault:"heuristic"`
	APIKey  string        `env:"OPENAI_API_KEY"`
	Model   string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL string        `env:"OPENAI_BASE_URL"`
	Timeout time.Duration `env:"ORACLE_TIMEOUT" envDefault:"4s"`
}

func LoadOracle() (OracleConfig, error) {
	var cfg OracleConfig
	err := env.Parse(&cfg)
	return cfg, err
}
