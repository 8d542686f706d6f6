package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"career-bingo/internal/game"
)

// Memory is an in-process repository with the same atomicity guarantees as
// Store. Used when no database is configured and in tests.
type Memory struct {
	mu           sync.Mutex
	rooms        map[string]game.Room
	sessions     map[string]game.Session
	participants map[string]game.Participant
	questions    map[string]game.Question
	clicks       map[string][]game.ClickEvent
	awards       map[string][]game.BingoAward
}

func NewMemory() *Memory {
	return &Memory{
		rooms:        map[string]game.Room{},
		sessions:     map[string]game.Session{},
		participants: map[string]game.Participant{},
		questions:    map[string]game.Question{},
		clicks:       map[string][]game.ClickEvent{},
		awards:       map[string][]game.BingoAward{},
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) CreateRoom(_ context.Context, room game.Room) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room.ID == "" {
		room.ID = NewID()
	}
	if _, ok := m.rooms[room.ID]; ok {
		return "", ErrDuplicate
	}
	room.CategoryScope = append([]string(nil), room.CategoryScope...)
	room.CreatedAt = time.Now()
	m.rooms[room.ID] = room
	return room.ID, nil
}

func (m *Memory) GetRoom(_ context.Context, id string) (*game.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	r.CategoryScope = append([]string(nil), r.CategoryScope...)
	return &r, nil
}

func (m *Memory) ListRooms(context.Context) ([]game.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]game.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) CreateSession(_ context.Context, roomID string, totalQuestions, bingoSlots int) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rooms[roomID]; !ok {
		return nil, ErrNotFound
	}
	number := 0
	for _, s := range m.sessions {
		if s.RoomID == roomID && s.GameNumber > number {
			number = s.GameNumber
		}
	}
	sess := game.Session{
		ID:                  NewID(),
		RoomID:              roomID,
		GameNumber:          number + 1,
		Status:              game.SessionPending,
		TotalQuestions:      totalQuestions,
		QuestionsAsked:      []string{},
		BingoSlotsTotal:     bingoSlots,
		BingoSlotsRemaining: bingoSlots,
		CreatedAt:           time.Now(),
	}
	m.sessions[sess.ID] = sess
	return copySession(sess), nil
}

func (m *Memory) GetSession(_ context.Context, id string) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(s), nil
}

func (m *Memory) MarkSessionActive(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if s.Status == game.SessionPending {
		now := time.Now()
		s.Status = game.SessionActive
		s.StartedAt = &now
		m.sessions[id] = s
	}
	return nil
}

func (m *Memory) MarkSessionCompleted(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false, ErrNotFound
	}
	if s.Status == game.SessionCompleted {
		return false, nil
	}
	now := time.Now()
	s.Status = game.SessionCompleted
	s.CompletedAt = &now
	m.sessions[id] = s
	return true, nil
}

func (m *Memory) RecordQuestionAsked(_ context.Context, sessionID, questionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	for _, id := range s.QuestionsAsked {
		if id == questionID {
			return ErrDuplicate
		}
	}
	s.QuestionsAsked = append(append([]string(nil), s.QuestionsAsked...), questionID)
	m.sessions[sessionID] = s
	return nil
}

func (m *Memory) AdvanceQuestion(_ context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return 0, ErrNotFound
	}
	s.CurrentQuestionIndex++
	m.sessions[sessionID] = s
	return s.CurrentQuestionIndex, nil
}

func (m *Memory) ClaimBingoSlot(_ context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return 0, ErrNotFound
	}
	if s.BingoSlotsRemaining <= 0 {
		return 0, ErrSlotsExhausted
	}
	s.BingoSlotsRemaining--
	m.sessions[sessionID] = s
	return s.BingoSlotsTotal - s.BingoSlotsRemaining, nil
}

func (m *Memory) CreateParticipant(_ context.Context, p game.Participant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[p.SessionID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.participants[p.ID]; ok {
		return ErrDuplicate
	}
	p.Version = 0
	p.CreatedAt = time.Now()
	m.participants[p.ID] = p
	return nil
}

func (m *Memory) GetParticipant(_ context.Context, id string) (*game.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.participants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListParticipants(_ context.Context, sessionID string) ([]game.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []game.Participant{}
	for _, p := range m.participants {
		if p.SessionID == sessionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateParticipant(_ context.Context, p game.Participant) (game.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.participants[p.ID]
	if !ok {
		return p, ErrNotFound
	}
	if cur.Version != p.Version {
		return p, ErrConflict
	}
	// identity and card are immutable after join
	p.SessionID = cur.SessionID
	p.Card = cur.Card
	p.Kind = cur.Kind
	p.CreatedAt = cur.CreatedAt
	p.Version++
	m.participants[p.ID] = p
	return p, nil
}

func (m *Memory) CreateQuestion(_ context.Context, q game.Question) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q.ID == "" {
		q.ID = NewID()
	}
	if _, ok := m.questions[q.ID]; ok {
		return "", ErrDuplicate
	}
	q.CreatedAt = time.Now()
	m.questions[q.ID] = q
	return q.ID, nil
}

func (m *Memory) ListQuestions(_ context.Context, categories []string) ([]game.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	allowed := map[string]bool{}
	for _, c := range categories {
		allowed[c] = true
	}
	out := []game.Question{}
	for _, q := range m.questions {
		if len(allowed) == 0 || allowed[q.Category] {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) CountQuestions(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.questions), nil
}

func (m *Memory) MarkQuestionShown(_ context.Context, id string) error {
	return m.bumpQuestion(id, func(q *game.Question) { q.TimesShown++ })
}

func (m *Memory) MarkQuestionCorrect(_ context.Context, id string) error {
	return m.bumpQuestion(id, func(q *game.Question) { q.TimesCorrect++ })
}

func (m *Memory) bumpQuestion(id string, fn func(*game.Question)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.questions[id]
	if !ok {
		return ErrNotFound
	}
	fn(&q)
	m.questions[id] = q
	return nil
}

func (m *Memory) AppendClick(_ context.Context, ev game.ClickEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev.ID == "" {
		ev.ID = NewID()
	}
	ev.CreatedAt = time.Now()
	m.clicks[ev.SessionID] = append(m.clicks[ev.SessionID], ev)
	return nil
}

func (m *Memory) ListClicks(_ context.Context, sessionID string) ([]game.ClickEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]game.ClickEvent{}, m.clicks[sessionID]...), nil
}

func (m *Memory) AppendAward(_ context.Context, a game.BingoAward) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.awards[a.SessionID] {
		if existing.AwardNumber == a.AwardNumber {
			return ErrDuplicate
		}
	}
	if a.ID == "" {
		a.ID = NewID()
	}
	a.CreatedAt = time.Now()
	m.awards[a.SessionID] = append(m.awards[a.SessionID], a)
	return nil
}

func (m *Memory) ListAwards(_ context.Context, sessionID string) ([]game.BingoAward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]game.BingoAward{}, m.awards[sessionID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].AwardNumber < out[j].AwardNumber })
	return out, nil
}

func copySession(s game.Session) *game.Session {
	s.QuestionsAsked = append([]string{}, s.QuestionsAsked...)
	return &s
}
