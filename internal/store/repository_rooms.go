package store

import (
	"context"

	"career-bingo/internal/game"
)

const roomColumns = `id, name, question_time_limit_ms, intermission_ms, total_questions, bingo_slots, corners_enabled, category_scope, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*game.Room, error) {
	var r game.Room
	var limitMS, intermissionMS int64
	if err := row.Scan(&r.ID, &r.Name, &limitMS, &intermissionMS, &r.TotalQuestions, &r.BingoSlots, &r.CornersEnabled, &r.CategoryScope, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.QuestionTimeLimit = msDuration(limitMS)
	r.Intermission = msDuration(intermissionMS)
	return &r, nil
}

func (s *Store) CreateRoom(ctx context.Context, room game.Room) (string, error) {
	if room.ID == "" {
		room.ID = NewID()
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO rooms (id, name, question_time_limit_ms, intermission_ms, total_questions, bingo_slots, corners_enabled, category_scope)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		room.ID, room.Name, durationMS(room.QuestionTimeLimit), durationMS(room.Intermission),
		room.TotalQuestions, room.BingoSlots, room.CornersEnabled, nonNilStrings(room.CategoryScope))
	if err != nil {
		return "", mapWriteErr(err)
	}
	return room.ID, nil
}

func (s *Store) GetRoom(ctx context.Context, id string) (*game.Room, error) {
	r, err := scanRoom(s.Pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
	if err != nil {
		return nil, mapNotFound(err)
	}
	return r, nil
}

func (s *Store) ListRooms(ctx context.Context) ([]game.Room, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []game.Room{}
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
