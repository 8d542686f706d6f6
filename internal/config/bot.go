package config

import "github.com/caarlos0/env/v11"

type BotConfig struct {
	BaseURL   string `env:"BOT_BASE_URL" envDefault:"http://localhost:8080"`
	SessionID string `env:"BOT_SESSION_ID"`
	Name      string `env:"BOT_NAME" envDefault:"bot"`
	// AnswerRate is the share of questions the bot clicks on at all.
	AnswerRate float64 `env:"BOT_ANSWER_RATE" envDefault:"0.7"`
}

func LoadBot() (BotConfig, error) {
	var cfg BotConfig
	err := env.Parse(&cfg)
	return cfg, err
}
