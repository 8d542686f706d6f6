package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/game"
	"career-bingo/internal/store"
)

const maxDisplayName = 64

// OpenSession creates a pending session using the room's question budget and
// bingo slots.
func (r *Registry) OpenSession(ctx context.Context, roomID string) (*game.Session, error) {
	room, err := r.repo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.TotalQuestions <= 0 || room.BingoSlots < 0 || room.QuestionTimeLimit <= 0 {
		return nil, fmt.Errorf("room %s: %w", roomID, ErrInvalidRequest)
	}
	return r.repo.CreateSession(ctx, roomID, room.TotalQuestions, room.BingoSlots)
}

type JoinRequest struct {
	DisplayName string               `json:"display_name"`
	Kind        game.ParticipantKind `json:"kind"`
	Difficulty  game.Difficulty      `json:"difficulty,omitempty"`
}

// Join deals a card from the room's category scope and adds the participant.
func (r *Registry) Join(ctx context.Context, sessionID string, req JoinRequest) (*game.Participant, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" || len(name) > maxDisplayName {
		return nil, ErrInvalidRequest
	}
	if req.Kind == "" {
		req.Kind = game.KindHuman
	}
	if req.Kind != game.KindHuman && req.Kind != game.KindAgent {
		return nil, ErrInvalidRequest
	}

	sess, err := r.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == game.SessionCompleted {
		return nil, ErrSessionCompleted
	}
	room, err := r.repo.GetRoom(ctx, sess.RoomID)
	if err != nil {
		return nil, err
	}
	categories, err := r.answerableCategories(ctx, room.CategoryScope)
	if err != nil {
		return nil, err
	}

	r.rndMu.Lock()
	card, err := game.DealCard(r.rnd, categories)
	r.rndMu.Unlock()
	if err != nil {
		return nil, err
	}

	p := game.Participant{
		ID:          store.NewID(),
		SessionID:   sessionID,
		DisplayName: name,
		Kind:        req.Kind,
		Card:        card,
		Unlocked:    game.NewCellSet(game.Center),
	}
	if p.IsAgent() {
		p.Difficulty = game.ParseDifficulty(string(req.Difficulty))
	}
	if err := r.repo.CreateParticipant(ctx, p); err != nil {
		return nil, err
	}
	created, err := r.repo.GetParticipant(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	r.proc.publish(ctx, sessionID, func() (broadcast.Event, error) {
		return broadcast.NewParticipantJoined(*created)
	})
	return created, nil
}

func (r *Registry) answerableCategories(ctx context.Context, scope []string) ([]string, error) {
	qs, err := r.repo.ListQuestions(ctx, scope)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, q := range qs {
		if _, ok := seen[q.Category]; ok {
			continue
		}
		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}
	return out, nil
}

// Leave marks the participant as gone: agents are no longer scheduled and
// later clicks are stale. Leaving twice is a no-op.
func (r *Registry) Leave(ctx context.Context, sessionID, participantID string) error {
	var left game.Participant
	changed, err := r.proc.mutateParticipant(ctx, sessionID, participantID, func(cur *game.Participant) bool {
		if cur.Left {
			return false
		}
		cur.Left = true
		left = *cur
		return true
	})
	if err != nil || !changed {
		return err
	}
	r.proc.publish(ctx, sessionID, func() (broadcast.Event, error) {
		return broadcast.NewParticipantLeft(left)
	})
	return nil
}

// QuestionView is the open question as shown to players, without the answer.
type QuestionView struct {
	Number     int       `json:"number"`
	QuestionID string    `json:"question_id"`
	Text       string    `json:"text"`
	StartedAt  time.Time `json:"started_at"`
	Deadline   time.Time `json:"deadline"`
}

type Snapshot struct {
	Session      game.Session       `json:"session"`
	Running      bool               `json:"running"`
	Question     *QuestionView      `json:"question,omitempty"`
	Participants []game.Participant `json:"participants"`
	Awards       []game.BingoAward  `json:"awards"`
	Summary      *Summary           `json:"summary,omitempty"`
}

func (r *Registry) Snapshot(ctx context.Context, sessionID string) (*Snapshot, error) {
	sess, err := r.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	participants, err := r.repo.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	awards, err := r.repo.ListAwards(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Session: *sess, Running: r.Running(sessionID), Participants: participants, Awards: awards}
	if run := r.lookup(sessionID); run != nil {
		if q := run.current(); q != nil {
			snap.Question = &QuestionView{
				Number:     q.Number(),
				QuestionID: q.Question.ID,
				Text:       q.Question.Text,
				StartedAt:  q.StartedAt,
				Deadline:   q.Deadline,
			}
		}
		snap.Summary, _ = r.Summary(sessionID)
	}
	return snap, nil
}

// IsClientError reports whether err is caused by the request rather than
// the server.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrInvalidCell) ||
		errors.Is(err, ErrSessionCompleted) || errors.Is(err, game.ErrNotEnoughCategories)
}
