package oracle

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"career-bingo/internal/config"
	"career-bingo/internal/game"
)

var ErrNoAPIKey = errors.New("openai_api_key_missing")

// AgentView is what an agent may see of its own card.
type AgentView struct {
	Card     game.Card
	Unlocked game.CellSet
}

// Decision is a simulated click. Pass means the agent does not answer this
// question; ResponseTime is measured from question start.
type Decision struct {
	Cell         game.Cell
	ResponseTime time.Duration
	Pass         bool
}

type Oracle interface {
	Decide(ctx context.Context, q game.Question, view AgentView, difficulty game.Difficulty) (Decision, error)
}

// New returns the oracle selected by cfg.Mode. The heuristic oracle is also
// the fallback of the OpenAI one.
func New(cfg config.OracleConfig, rnd *rand.Rand) (Oracle, error) {
	h := NewHeuristic(rnd)
	switch cfg.Mode {
	case "", "heuristic":
		return h, nil
	case "openai":
		return NewOpenAI(cfg, h)
	default:
		return nil, fmt.Errorf("unknown oracle mode %q", cfg.Mode)
	}
}
