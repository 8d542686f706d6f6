package selector

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"career-bingo/internal/game"
)

var ErrNoEligibleQuestion = errors.New("no_eligible_question")

const (
	DefaultTopCategories = 10
	DefaultTopQuestions  = 3
)

type QuestionSource interface {
	ListQuestions(ctx context.Context, categories []string) ([]game.Question, error)
}

// Selector picks the next clue for a session: least-shown categories first,
// with a random pick among the top few so the order is not guessable.
type Selector struct {
	src           QuestionSource
	topCategories int
	topQuestions  int

	mu  sync.Mutex
	rnd *rand.Rand
}

func New(src QuestionSource, topCategories, topQuestions int, rnd *rand.Rand) *Selector {
	if topCategories <= 0 {
		topCategories = DefaultTopCategories
	}
	if topQuestions <= 0 {
		topQuestions = DefaultTopQuestions
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{src: src, topCategories: topCategories, topQuestions: topQuestions, rnd: rnd}
}

type categoryStat struct {
	code   string
	shown  int
	unused []game.Question
}

// Next returns a question whose id is not in asked, drawn from scope (all
// categories when empty). Categories already asked are skipped while any
// other category still has an unused question.
func (s *Selector) Next(ctx context.Context, asked []string, scope []string) (game.Question, error) {
	questions, err := s.src.ListQuestions(ctx, scope)
	if err != nil {
		return game.Question{}, err
	}
	askedIDs := make(map[string]struct{}, len(asked))
	for _, id := range asked {
		askedIDs[id] = struct{}{}
	}

	stats := map[string]*categoryStat{}
	askedCats := map[string]struct{}{}
	for _, q := range questions {
		if q.Category == "" || q.Category == game.FreeCategory {
			continue
		}
		st := stats[q.Category]
		if st == nil {
			st = &categoryStat{code: q.Category}
			stats[q.Category] = st
		}
		st.shown += q.TimesShown
		if _, ok := askedIDs[q.ID]; ok {
			askedCats[q.Category] = struct{}{}
			continue
		}
		st.unused = append(st.unused, q)
	}

	fresh := make([]*categoryStat, 0, len(stats))
	fallback := make([]*categoryStat, 0, len(stats))
	for code, st := range stats {
		if len(st.unused) == 0 {
			continue
		}
		if _, ok := askedCats[code]; ok {
			fallback = append(fallback, st)
			continue
		}
		fresh = append(fresh, st)
	}
	candidates := fresh
	if len(candidates) == 0 {
		candidates = fallback
	}
	if len(candidates) == 0 {
		return game.Question{}, ErrNoEligibleQuestion
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].shown != candidates[j].shown {
			return candidates[i].shown < candidates[j].shown
		}
		return candidates[i].code < candidates[j].code
	})
	pool := candidates[:min(s.topCategories, len(candidates))]

	s.mu.Lock()
	defer s.mu.Unlock()
	chosen := pool[s.rnd.Intn(len(pool))]
	qs := chosen.unused
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].TimesShown != qs[j].TimesShown {
			return qs[i].TimesShown < qs[j].TimesShown
		}
		return qs[i].ID < qs[j].ID
	})
	top := qs[:min(s.topQuestions, len(qs))]
	return top[s.rnd.Intn(len(top))], nil
}
