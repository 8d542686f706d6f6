package oracle

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"career-bingo/internal/game"
)

type profile struct {
	accuracy float64
	minDelay time.Duration
	maxDelay time.Duration
}

var profiles = map[game.Difficulty]profile{
	game.DifficultyEasy:   {accuracy: 0.55, minDelay: 6 * time.Second, maxDelay: 14 * time.Second},
	game.DifficultyMedium: {accuracy: 0.72, minDelay: 4 * time.Second, maxDelay: 10 * time.Second},
	game.DifficultyHard:   {accuracy: 0.88, minDelay: 2 * time.Second, maxDelay: 6 * time.Second},
}

func profileFor(d game.Difficulty) profile {
	if p, ok := profiles[d]; ok {
		return p
	}
	return profiles[game.DifficultyMedium]
}

// Heuristic answers correctly with a difficulty-dependent probability and
// otherwise clicks a random locked cell.
type Heuristic struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewHeuristic(rnd *rand.Rand) *Heuristic {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Heuristic{rnd: rnd}
}

func (h *Heuristic) Decide(_ context.Context, q game.Question, view AgentView, difficulty game.Difficulty) (Decision, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	p := profileFor(difficulty)
	d := Decision{ResponseTime: h.delay(p)}

	target, onCard := view.Card.Find(q.Category)
	knows := h.rnd.Float64() < p.accuracy
	switch {
	case onCard && view.Unlocked.Has(target):
		d.Pass = true
	case onCard && knows:
		d.Cell = target
	case !onCard && knows:
		d.Pass = true
	default:
		cell, ok := h.wrongCell(view, q.Category)
		if !ok {
			d.Pass = true
		}
		d.Cell = cell
	}
	return d, nil
}

// responseTime picks only the timing, for oracles that choose the cell
// themselves.
func (h *Heuristic) responseTime(difficulty game.Difficulty) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.delay(profileFor(difficulty))
}

func (h *Heuristic) delay(p profile) time.Duration {
	span := int64(p.maxDelay - p.minDelay)
	if span <= 0 {
		return p.minDelay
	}
	return p.minDelay + time.Duration(h.rnd.Int63n(span))
}

func (h *Heuristic) wrongCell(view AgentView, target string) (game.Cell, bool) {
	candidates := make([]game.Cell, 0, game.CellCount)
	for i := 0; i < game.CellCount; i++ {
		c := game.CellAt(i)
		if view.Unlocked.Has(c) || view.Card.At(c) == target || view.Card.At(c) == game.FreeCategory {
			continue
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return game.Cell{}, false
	}
	return candidates[h.rnd.Intn(len(candidates))], true
}
