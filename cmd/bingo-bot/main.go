package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"career-bingo/internal/config"
	"career-bingo/internal/game"
	"career-bingo/internal/logging"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type streamEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type questionStarted struct {
	QuestionNumber int `json:"question_number"`
	TimeLimitMS    int `json:"time_limit_ms"`
}

type joinResponse struct {
	ParticipantID string      `json:"participant_id"`
	Card          []string    `json:"card"`
	Unlocked      []game.Cell `json:"unlocked"`
}

type clickResult struct {
	Applied  bool       `json:"applied"`
	Correct  bool       `json:"correct"`
	Reason   string     `json:"reason"`
	Unlocked *game.Cell `json:"unlocked"`
	TotalXP  int        `json:"total_xp"`
}

// bot joins a session and answers a share of the questions by clicking a
// random locked cell. It cannot see the answer, so it is a load tool only.
type bot struct {
	cfg           config.BotConfig
	client        *http.Client
	participantID string

	mu       sync.Mutex
	rnd      *rand.Rand
	unlocked game.CellSet
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logCfg, err := config.LoadLog()
	if err != nil {
		panic(err)
	}
	if logCfg.Service == "" {
		logCfg.Service = "bingo-bot"
	}
	logging.Init(logCfg)
	cfg, err := config.LoadBot()
	if err != nil {
		log.Fatal().Err(err).Msg("load bot config failed")
	}
	if cfg.SessionID == "" {
		log.Fatal().Msg("BOT_SESSION_ID is required")
	}

	b := &bot{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := b.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("bot stopped")
	}
}

func (b *bot) run(ctx context.Context) error {
	if err := b.join(ctx); err != nil {
		return err
	}
	wsURL, err := streamURL(b.cfg.BaseURL, b.cfg.SessionID)
	if err != nil {
		return err
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}
	defer conn.Close()
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Info().Msg("session stream closed")
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var ev streamEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		switch ev.Event {
		case "question_started":
			var q questionStarted
			if err := json.Unmarshal(ev.Data, &q); err != nil {
				continue
			}
			go b.answer(ctx, q)
		case "game_completed":
			log.Info().Str("session_id", b.cfg.SessionID).Msg("game completed")
		}
	}
}

func (b *bot) join(ctx context.Context) error {
	body, _ := json.Marshal(map[string]any{"display_name": b.cfg.Name})
	endpoint := strings.TrimRight(b.cfg.BaseURL, "/") + "/api/sessions/" + b.cfg.SessionID + "/participants"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("join: unexpected status %d", resp.StatusCode)
	}
	var joined joinResponse
	if err := json.NewDecoder(resp.Body).Decode(&joined); err != nil {
		return fmt.Errorf("join: decode: %w", err)
	}
	b.participantID = joined.ParticipantID
	b.unlocked = game.NewCellSet(joined.Unlocked...)
	log.Info().Str("participant_id", joined.ParticipantID).Strs("card", joined.Card).Msg("joined session")
	return nil
}

func (b *bot) answer(ctx context.Context, q questionStarted) {
	b.mu.Lock()
	skip := b.rnd.Float64() >= b.cfg.AnswerRate
	cell, ok := pickCell(b.rnd, b.unlocked)
	// think for a bit, but stay inside the window
	think := time.Duration(0)
	if limit := time.Duration(q.TimeLimitMS) * time.Millisecond; limit > 0 {
		think = time.Duration(b.rnd.Int63n(int64(limit/2) + 1))
	}
	b.mu.Unlock()
	if skip || !ok {
		return
	}
	select {
	case <-ctx.Done():
		return
	case <-time.After(think):
	}
	res, err := b.click(ctx, cell)
	if err != nil {
		log.Warn().Err(err).Int("question", q.QuestionNumber).Msg("click failed")
		return
	}
	if res.Unlocked != nil {
		b.mu.Lock()
		b.unlocked = b.unlocked.With(*res.Unlocked)
		b.mu.Unlock()
	}
	log.Info().
		Int("question", q.QuestionNumber).
		Int("row", cell.Row).
		Int("col", cell.Col).
		Bool("correct", res.Correct).
		Str("reason", res.Reason).
		Int("total_xp", res.TotalXP).
		Msg("clicked")
}

func (b *bot) click(ctx context.Context, cell game.Cell) (clickResult, error) {
	var res clickResult
	body, _ := json.Marshal(map[string]any{"participant_id": b.participantID, "row": cell.Row, "col": cell.Col})
	endpoint := strings.TrimRight(b.cfg.BaseURL, "/") + "/api/sessions/" + b.cfg.SessionID + "/clicks"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return res, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := b.client.Do(req)
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(&res)
	return res, err
}

// pickCell returns a random cell not yet unlocked.
func pickCell(rnd *rand.Rand, unlocked game.CellSet) (game.Cell, bool) {
	locked := make([]game.Cell, 0, game.CellCount)
	for i := 0; i < game.CellCount; i++ {
		if c := game.CellAt(i); !unlocked.Has(c) {
			locked = append(locked, c)
		}
	}
	if len(locked) == 0 {
		return game.Cell{}, false
	}
	return locked[rnd.Intn(len(locked))], true
}

func streamURL(baseURL, sessionID string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	u.Path += "/api/sessions/" + sessionID + "/ws"
	return u.String(), nil
}
