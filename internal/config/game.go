package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// GameConfig holds the defaults applied to rooms created at bootstrap and
// the question selector tuning.
type GameConfig struct {
	TotalQuestions    int           `env:"GAME_TOTAL_QUESTIONS" envDefault:"20"`
	BingoSlots        int           `env:"GAME_BINGO_SLOTS" envDefault:"5"`
	QuestionTimeLimit time.Duration `env:"GAME_QUESTION_TIME_LIMIT" envDefault:"20s"`
	Intermission      time.Duration `env:"GAME_INTERMISSION" envDefault:"60s"`
	CornersEnabled    bool          `env:"GAME_CORNERS_ENABLED" envDefault:"true"`
	CategoryScope     []string      `env:"GAME_CATEGORY_SCOPE" envSeparator:","`

	// RetainFinished is how long a finished session keeps its replay buffer
	// and summary in memory.
	RetainFinished time.Duration `env:"GAME_RETAIN_FINISHED" envDefault:"10m"`

	SelectorTopCategories int   `env:"SELECTOR_TOP_CATEGORIES" envDefault:"10"`
	SelectorTopQuestions  int   `env:"SELECTOR_TOP_QUESTIONS" envDefault:"3"`
	Seed                  int64 `env:"GAME_SEED" envDefault:"0"`
}

func LoadGame() (GameConfig, error) {
	var cfg GameConfig
	err := env.Parse(&cfg)
	return cfg, err
}
