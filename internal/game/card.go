package game

import (
	"errors"
	"math/bits"
	"math/rand"
)

const (
	GridSize  = 5
	CellCount = GridSize * GridSize

	// FreeCategory marks the center cell; no question ever targets it.
	FreeCategory = "FREE"
)

var ErrNotEnoughCategories = errors.New("not_enough_categories")

// Center is pre-unlocked on every card.
var Center = Cell{Row: 2, Col: 2}

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (c Cell) Valid() bool {
	return c.Row >= 0 && c.Row < GridSize && c.Col >= 0 && c.Col < GridSize
}

func (c Cell) Index() int {
	return c.Row*GridSize + c.Col
}

func CellAt(index int) Cell {
	return Cell{Row: index / GridSize, Col: index % GridSize}
}

// CellSet is a bitmask over the 25 cells of a card, bit i = row*5+col.
type CellSet uint32

func NewCellSet(cells ...Cell) CellSet {
	var s CellSet
	for _, c := range cells {
		s = s.With(c)
	}
	return s
}

func (s CellSet) Has(c Cell) bool {
	if !c.Valid() {
		return false
	}
	return s&(1<<uint(c.Index())) != 0
}

func (s CellSet) With(c Cell) CellSet {
	if !c.Valid() {
		return s
	}
	return s | 1<<uint(c.Index())
}

func (s CellSet) Count() int {
	return bits.OnesCount32(uint32(s))
}

func (s CellSet) Cells() []Cell {
	out := make([]Cell, 0, s.Count())
	for i := 0; i < CellCount; i++ {
		if s&(1<<uint(i)) != 0 {
			out = append(out, CellAt(i))
		}
	}
	return out
}

// Card is a row-major 5x5 grid of category codes.
type Card [CellCount]string

func (c Card) At(cell Cell) string {
	if !cell.Valid() {
		return ""
	}
	return c[cell.Index()]
}

// Find returns the first cell holding category.
func (c Card) Find(category string) (Cell, bool) {
	for i, v := range c {
		if v == category {
			return CellAt(i), true
		}
	}
	return Cell{}, false
}

func (c Card) Slice() []string {
	out := make([]string, CellCount)
	copy(out, c[:])
	return out
}

func CardFromSlice(values []string) (Card, error) {
	var c Card
	if len(values) != CellCount {
		return c, errors.New("invalid_card")
	}
	copy(c[:], values)
	return c, nil
}

// DealCard draws 24 distinct categories around the free center.
func DealCard(rnd *rand.Rand, categories []string) (Card, error) {
	var card Card
	pool := make([]string, 0, len(categories))
	seen := map[string]struct{}{}
	for _, cat := range categories {
		if cat == "" || cat == FreeCategory {
			continue
		}
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		pool = append(pool, cat)
	}
	if len(pool) < CellCount-1 {
		return card, ErrNotEnoughCategories
	}
	rnd.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	next := 0
	for i := range card {
		if i == Center.Index() {
			card[i] = FreeCategory
			continue
		}
		card[i] = pool[next]
		next++
	}
	return card, nil
}
