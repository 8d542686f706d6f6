package match

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/game"
	"career-bingo/internal/oracle"
	"career-bingo/internal/store"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []broadcast.Event
	closed []string
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, ev broadcast.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) CloseSession(_ context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, sessionID)
	return nil
}

func (p *recordingPublisher) count(kind broadcast.Kind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, ev := range p.events {
		if ev.Kind() == kind {
			n++
		}
	}
	return n
}

func (p *recordingPublisher) closedCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.closed)
}

type oracleFunc func(ctx context.Context, q game.Question, view oracle.AgentView, d game.Difficulty) (oracle.Decision, error)

func (f oracleFunc) Decide(ctx context.Context, q game.Question, view oracle.AgentView, d game.Difficulty) (oracle.Decision, error) {
	return f(ctx, q, view, d)
}

type testRepository interface {
	Repository
	store.Seeder
	ListClicks(ctx context.Context, sessionID string) ([]game.ClickEvent, error)
}

type testEnv struct {
	ctx    context.Context
	repo   testRepository
	pub    *recordingPublisher
	reg    *Registry
	roomID string
}

func newTestEnv(t *testing.T, room game.Room, o oracle.Oracle) *testEnv {
	t.Helper()
	return newTestEnvWith(t, store.NewMemory(), room, o)
}

func newTestEnvWith(t *testing.T, repo testRepository, room game.Room, o oracle.Oracle) *testEnv {
	t.Helper()
	ctx := context.Background()
	if room.Name == "" {
		room.Name = "test room"
	}
	roomID, err := store.EnsureDefaults(ctx, repo, room)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	pub := &recordingPublisher{}
	reg := NewRegistry(repo, pub, Options{Oracle: o, Rand: rand.New(rand.NewSource(1))})
	t.Cleanup(func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = reg.Shutdown(sctx)
	})
	return &testEnv{ctx: ctx, repo: repo, pub: pub, reg: reg, roomID: roomID}
}

func (e *testEnv) openSession(t *testing.T) *game.Session {
	t.Helper()
	sess, err := e.reg.OpenSession(e.ctx, e.roomID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return sess
}

// fixedCard lays the first 24 catalog categories out row by row around the
// free center.
func fixedCard() game.Card {
	cats := store.DefaultCategories()
	var card game.Card
	next := 0
	for i := range card {
		if i == game.Center.Index() {
			card[i] = game.FreeCategory
			continue
		}
		card[i] = cats[next]
		next++
	}
	return card
}

func cardCategories() []string {
	return store.DefaultCategories()[:game.CellCount-1]
}

func (e *testEnv) addParticipant(t *testing.T, sessionID, name string, kind game.ParticipantKind, unlocked game.CellSet) *game.Participant {
	t.Helper()
	p := game.Participant{
		ID:          store.NewID(),
		SessionID:   sessionID,
		DisplayName: name,
		Kind:        kind,
		Card:        fixedCard(),
		Unlocked:    unlocked.With(game.Center),
	}
	if kind == game.KindAgent {
		p.Difficulty = game.DifficultyMedium
	}
	if err := e.repo.CreateParticipant(e.ctx, p); err != nil {
		t.Fatalf("create participant: %v", err)
	}
	got, err := e.repo.GetParticipant(e.ctx, p.ID)
	if err != nil {
		t.Fatalf("get participant: %v", err)
	}
	return got
}

func (e *testEnv) participant(t *testing.T, id string) *game.Participant {
	t.Helper()
	p, err := e.repo.GetParticipant(e.ctx, id)
	if err != nil {
		t.Fatalf("get participant %s: %v", id, err)
	}
	return p
}

func (e *testEnv) session(t *testing.T, id string) *game.Session {
	t.Helper()
	s, err := e.repo.GetSession(e.ctx, id)
	if err != nil {
		t.Fatalf("get session %s: %v", id, err)
	}
	return s
}

func waitDone(t *testing.T, reg *Registry, sessionID string, timeout time.Duration) {
	t.Helper()
	done := reg.Done(sessionID)
	if done == nil {
		t.Fatalf("session %s was never started", sessionID)
	}
	select {
	case <-done:
	case <-time.After(timeout):
		t.Fatalf("session %s did not finish within %s", sessionID, timeout)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}

func rowCells(row int) game.CellSet {
	var s game.CellSet
	for c := 0; c < game.GridSize; c++ {
		s = s.With(game.Cell{Row: row, Col: c})
	}
	return s
}

func question(id string, category string) *ActiveQuestion {
	now := time.Now()
	return &ActiveQuestion{
		Index:     0,
		Question:  game.Question{ID: id, Text: "clue for " + category, Category: category},
		StartedAt: now,
		Deadline:  now.Add(time.Minute),
	}
}

var errConnReset = errors.New("connection reset")

// flakyRepo fails selected writes of the in-memory store a set number of
// times.
type flakyRepo struct {
	*store.Memory

	mu               sync.Mutex
	claimFailures    int
	bonusFailures    int // UpdateParticipant failures once a slot was claimed
	recordDuplicates int
	recordCalls      int
	claimed          bool
}

func (r *flakyRepo) ClaimBingoSlot(ctx context.Context, sessionID string) (int, error) {
	r.mu.Lock()
	if r.claimFailures > 0 {
		r.claimFailures--
		r.mu.Unlock()
		return 0, errConnReset
	}
	r.mu.Unlock()
	n, err := r.Memory.ClaimBingoSlot(ctx, sessionID)
	if err == nil {
		r.mu.Lock()
		r.claimed = true
		r.mu.Unlock()
	}
	return n, err
}

func (r *flakyRepo) UpdateParticipant(ctx context.Context, p game.Participant) (game.Participant, error) {
	r.mu.Lock()
	if r.claimed && r.bonusFailures > 0 {
		r.bonusFailures--
		r.mu.Unlock()
		return game.Participant{}, errConnReset
	}
	r.mu.Unlock()
	return r.Memory.UpdateParticipant(ctx, p)
}

func (r *flakyRepo) RecordQuestionAsked(ctx context.Context, sessionID, questionID string) error {
	r.mu.Lock()
	r.recordCalls++
	if r.recordDuplicates > 0 {
		r.recordDuplicates--
		r.mu.Unlock()
		return store.ErrDuplicate
	}
	r.mu.Unlock()
	return r.Memory.RecordQuestionAsked(ctx, sessionID, questionID)
}
