package match

import (
	"context"
	"errors"
	"testing"
	"time"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/game"
	"career-bingo/internal/oracle"
	"career-bingo/internal/store"
)

func fastRoom(questions, slots int) game.Room {
	return game.Room{
		QuestionTimeLimit: 20 * time.Millisecond,
		TotalQuestions:    questions,
		BingoSlots:        slots,
		CornersEnabled:    true,
	}
}

func passOracle() oracle.Oracle {
	return oracleFunc(func(context.Context, game.Question, oracle.AgentView, game.Difficulty) (oracle.Decision, error) {
		return oracle.Decision{Pass: true}, nil
	})
}

func TestRegistryRunsQuestionBudget(t *testing.T) {
	env := newTestEnv(t, fastRoom(3, 5), passOracle())
	sess := env.openSession(t)

	started, err := env.reg.Start(env.ctx, sess.ID)
	if err != nil || !started {
		t.Fatalf("start: started=%v err=%v", started, err)
	}
	waitDone(t, env.reg, sess.ID, 3*time.Second)

	got := env.session(t, sess.ID)
	if got.Status != game.SessionCompleted || got.CompletedAt == nil {
		t.Fatalf("session not completed: %+v", got)
	}
	if got.CurrentQuestionIndex != 3 || len(got.QuestionsAsked) != 3 {
		t.Fatalf("expected 3 questions, got index=%d asked=%v", got.CurrentQuestionIndex, got.QuestionsAsked)
	}
	seen := map[string]bool{}
	for _, id := range got.QuestionsAsked {
		if seen[id] {
			t.Fatalf("question %s asked twice", id)
		}
		seen[id] = true
	}
	if n := env.pub.count(broadcast.KindQuestionStarted); n != 3 {
		t.Fatalf("expected 3 question_started, got %d", n)
	}
	if n := env.pub.count(broadcast.KindGameCompleted); n != 1 {
		t.Fatalf("expected 1 game_completed, got %d", n)
	}
	if env.pub.closedCount() != 1 {
		t.Fatalf("expected stream close")
	}
	summary, ok := env.reg.Summary(sess.ID)
	if !ok || summary.QuestionsAsked != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if env.reg.Running(sess.ID) {
		t.Fatalf("finished session still reported running")
	}
}

func TestRegistryStartIsIdempotent(t *testing.T) {
	env := newTestEnv(t, fastRoom(2, 5), passOracle())
	sess := env.openSession(t)

	if ok, err := env.reg.Start(env.ctx, sess.ID); err != nil || !ok {
		t.Fatalf("first start: ok=%v err=%v", ok, err)
	}
	if ok, err := env.reg.Start(env.ctx, sess.ID); err != nil || ok {
		t.Fatalf("second start should be a no-op: ok=%v err=%v", ok, err)
	}
	waitDone(t, env.reg, sess.ID, 3*time.Second)
	if ok, err := env.reg.Start(env.ctx, sess.ID); err != nil || ok {
		t.Fatalf("start after completion should be a no-op: ok=%v err=%v", ok, err)
	}
	if n := env.pub.count(broadcast.KindQuestionStarted); n != 2 {
		t.Fatalf("expected one loop asking 2 questions, got %d", n)
	}

	if _, err := env.reg.Start(env.ctx, "missing"); err == nil {
		t.Fatalf("expected error for unknown session")
	}
}

func TestRegistryStopCancelsAgents(t *testing.T) {
	room := fastRoom(10, 5)
	room.QuestionTimeLimit = time.Hour
	decided := make(chan struct{}, 1)
	slow := oracleFunc(func(_ context.Context, q game.Question, view oracle.AgentView, _ game.Difficulty) (oracle.Decision, error) {
		cell, ok := view.Card.Find(q.Category)
		select {
		case decided <- struct{}{}:
		default:
		}
		if !ok {
			return oracle.Decision{Pass: true}, nil
		}
		return oracle.Decision{Cell: cell, ResponseTime: time.Hour}, nil
	})
	env := newTestEnv(t, room, slow)
	sess := env.openSession(t)
	agent := env.addParticipant(t, sess.ID, "bot", game.KindAgent, 0)

	if _, err := env.reg.Start(env.ctx, sess.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-decided:
	case <-time.After(2 * time.Second):
		t.Fatalf("agent was never scheduled")
	}

	if !env.reg.Stop(sess.ID) {
		t.Fatalf("stop should find the run")
	}
	waitDone(t, env.reg, sess.ID, time.Second)
	if !env.reg.Stop(sess.ID) {
		t.Fatalf("second stop should still find the run")
	}

	if n := env.pub.count(broadcast.KindGameCompleted); n != 1 {
		t.Fatalf("expected exactly one game_completed, got %d", n)
	}
	if got := env.participant(t, agent.ID); got.CorrectCount+got.IncorrectCnt != 0 {
		t.Fatalf("cancelled agent still clicked: %+v", got)
	}
	got := env.session(t, sess.ID)
	if got.Status != game.SessionCompleted || got.CurrentQuestionIndex != 0 {
		t.Fatalf("stopped session: %+v", got)
	}
}

func TestRegistrySweepEndsGameWhenSlotsRunOut(t *testing.T) {
	env := newTestEnv(t, fastRoom(5, 1), passOracle())
	sess := env.openSession(t)
	p := env.addParticipant(t, sess.ID, "ana", game.KindHuman, rowCells(0))

	if _, err := env.reg.Start(env.ctx, sess.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, env.reg, sess.ID, 3*time.Second)

	got := env.session(t, sess.ID)
	if got.BingoSlotsRemaining != 0 || len(got.QuestionsAsked) != 1 {
		t.Fatalf("expected game to end after one question: %+v", got)
	}
	winner := env.participant(t, p.ID)
	if winner.BingosWon != 1 || winner.TotalXP != game.AwardBonus(1) {
		t.Fatalf("unexpected winner state: %+v", winner)
	}
	summary, ok := env.reg.Summary(sess.ID)
	if !ok || len(summary.Awards) != 1 || summary.Leaderboard[0].ParticipantID != p.ID {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRegistryAgentsAnswerThroughOracle(t *testing.T) {
	room := fastRoom(2, 5)
	room.QuestionTimeLimit = 80 * time.Millisecond
	room.CategoryScope = cardCategories()
	knowing := oracleFunc(func(_ context.Context, q game.Question, view oracle.AgentView, _ game.Difficulty) (oracle.Decision, error) {
		cell, ok := view.Card.Find(q.Category)
		if !ok || view.Unlocked.Has(cell) {
			return oracle.Decision{Pass: true}, nil
		}
		return oracle.Decision{Cell: cell, ResponseTime: time.Millisecond}, nil
	})
	env := newTestEnv(t, room, knowing)
	sess := env.openSession(t)
	agent := env.addParticipant(t, sess.ID, "bot", game.KindAgent, 0)

	if _, err := env.reg.Start(env.ctx, sess.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, env.reg, sess.ID, 3*time.Second)

	got := env.participant(t, agent.ID)
	if got.CorrectCount != 2 || got.IncorrectCnt != 0 {
		t.Fatalf("expected 2 correct agent answers, got %+v", got)
	}
	clicks, err := env.repo.ListClicks(env.ctx, sess.ID)
	if err != nil {
		t.Fatalf("list clicks: %v", err)
	}
	for _, c := range clicks {
		if c.Source != game.SourceAgent {
			t.Fatalf("unexpected click source %q", c.Source)
		}
	}
}

func TestSubmitClickOncePerQuestion(t *testing.T) {
	room := fastRoom(1, 5)
	room.QuestionTimeLimit = time.Hour
	env := newTestEnv(t, room, passOracle())
	sess := env.openSession(t)
	p := env.addParticipant(t, sess.ID, "ana", game.KindHuman, 0)

	if _, err := env.reg.Start(env.ctx, sess.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	var aq *ActiveQuestion
	waitFor(t, 2*time.Second, func() bool {
		if run := env.reg.lookup(sess.ID); run != nil {
			aq = run.current()
		}
		return aq != nil
	})

	var wrong []game.Cell
	for i, cat := range p.Card {
		if cat != aq.Question.Category && i != game.Center.Index() {
			wrong = append(wrong, game.CellAt(i))
		}
	}
	res, err := env.reg.SubmitClick(env.ctx, sess.ID, p.ID, wrong[0])
	if err != nil || !res.Applied || res.Correct {
		t.Fatalf("expected applied incorrect click, got %+v err=%v", res, err)
	}
	res, err = env.reg.SubmitClick(env.ctx, sess.ID, p.ID, wrong[1])
	if err != nil || res.Applied || res.Reason != ReasonAlreadyAnswered {
		t.Fatalf("expected already_answered, got %+v err=%v", res, err)
	}

	snap, err := env.reg.Snapshot(env.ctx, sess.ID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !snap.Running || snap.Question == nil || snap.Question.QuestionID != aq.Question.ID {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	env.reg.Stop(sess.ID)
	waitDone(t, env.reg, sess.ID, time.Second)

	res, err = env.reg.SubmitClick(env.ctx, sess.ID, p.ID, wrong[1])
	if err != nil || res.Reason != ReasonNoActiveQuestion {
		t.Fatalf("expected no_active_question after stop, got %+v err=%v", res, err)
	}
	if _, err := env.reg.SubmitClick(env.ctx, sess.ID, "nobody", wrong[1]); err == nil {
		t.Fatalf("expected error for unknown participant")
	}
	if _, err := env.reg.SubmitClick(env.ctx, sess.ID, p.ID, game.Cell{Row: -1}); !errors.Is(err, ErrInvalidCell) {
		t.Fatalf("expected ErrInvalidCell, got %v", err)
	}
}

func TestRegistryEndsWhenCompletedElsewhere(t *testing.T) {
	room := fastRoom(50, 5)
	room.QuestionTimeLimit = 200 * time.Millisecond
	env := newTestEnv(t, room, passOracle())
	sess := env.openSession(t)

	if _, err := env.reg.Start(env.ctx, sess.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, time.Second, func() bool { return env.pub.count(broadcast.KindQuestionStarted) == 1 })
	if changed, err := env.repo.MarkSessionCompleted(env.ctx, sess.ID); err != nil || !changed {
		t.Fatalf("complete elsewhere: changed=%v err=%v", changed, err)
	}
	waitDone(t, env.reg, sess.ID, 3*time.Second)

	got := env.session(t, sess.ID)
	if got.Status != game.SessionCompleted || len(got.QuestionsAsked) != 1 {
		t.Fatalf("expected stop after the open question, got %+v", got)
	}
	if n := env.pub.count(broadcast.KindQuestionStarted); n != 1 {
		t.Fatalf("expected 1 question_started, got %d", n)
	}
	if n := env.pub.count(broadcast.KindGameCompleted); n != 1 {
		t.Fatalf("expected 1 game_completed, got %d", n)
	}
	if summary, ok := env.reg.Summary(sess.ID); !ok || summary.QuestionsAsked != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRegistryEndsWhenQuestionsRunOut(t *testing.T) {
	scope := []string{cardCategories()[0]}
	room := fastRoom(50, 5)
	room.CategoryScope = scope
	env := newTestEnv(t, room, passOracle())
	sess := env.openSession(t)
	pool, err := env.repo.ListQuestions(env.ctx, scope)
	if err != nil || len(pool) == 0 {
		t.Fatalf("list questions: n=%d err=%v", len(pool), err)
	}

	if _, err := env.reg.Start(env.ctx, sess.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, env.reg, sess.ID, 5*time.Second)

	got := env.session(t, sess.ID)
	if got.Status != game.SessionCompleted || len(got.QuestionsAsked) != len(pool) || got.CurrentQuestionIndex != len(pool) {
		t.Fatalf("expected %d questions before early end, got %+v", len(pool), got)
	}
	if n := env.pub.count(broadcast.KindQuestionStarted); n != len(pool) {
		t.Fatalf("expected %d question_started, got %d", len(pool), n)
	}
	if n := env.pub.count(broadcast.KindGameCompleted); n != 1 {
		t.Fatalf("expected 1 game_completed, got %d", n)
	}
}

func TestRegistrySelectsAgainAfterDuplicateRecord(t *testing.T) {
	repo := &flakyRepo{Memory: store.NewMemory(), recordDuplicates: 1}
	env := newTestEnvWith(t, repo, fastRoom(1, 5), passOracle())
	sess := env.openSession(t)

	if _, err := env.reg.Start(env.ctx, sess.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, env.reg, sess.ID, 3*time.Second)

	got := env.session(t, sess.ID)
	if len(got.QuestionsAsked) != 1 {
		t.Fatalf("expected one recorded question, got %v", got.QuestionsAsked)
	}
	if n := env.pub.count(broadcast.KindQuestionStarted); n != 1 {
		t.Fatalf("expected 1 question_started, got %d", n)
	}
	env.pub.mu.Lock()
	var startedID string
	for _, ev := range env.pub.events {
		if qs, ok := ev.(broadcast.QuestionStarted); ok {
			startedID = qs.QuestionID
		}
	}
	env.pub.mu.Unlock()
	if startedID != got.QuestionsAsked[0] {
		t.Fatalf("announced %s but recorded %s", startedID, got.QuestionsAsked[0])
	}
	repo.mu.Lock()
	calls := repo.recordCalls
	repo.mu.Unlock()
	if calls != 2 {
		t.Fatalf("record calls = %d, want 2", calls)
	}
}

func TestRegistryReleasesFinishedSession(t *testing.T) {
	env := newTestEnv(t, fastRoom(2, 5), passOracle())
	forgotten := make(chan string, 2)
	env.reg.retain = 10 * time.Millisecond
	env.reg.onForget = func(id string) { forgotten <- id }
	sess := env.openSession(t)

	if _, err := env.reg.Start(env.ctx, sess.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitDone(t, env.reg, sess.ID, 3*time.Second)
	select {
	case id := <-forgotten:
		if id != sess.ID {
			t.Fatalf("forgot %s, want %s", id, sess.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("finished session was never released")
	}

	if env.reg.Done(sess.ID) != nil {
		t.Fatal("released session should have no Done channel")
	}
	if _, ok := env.reg.Summary(sess.ID); ok {
		t.Fatal("released session should have no in-memory summary")
	}
	started, err := env.reg.Start(env.ctx, sess.ID)
	if err != nil || started {
		t.Fatalf("restart of completed session: started=%v err=%v", started, err)
	}
	snap, err := env.reg.Snapshot(env.ctx, sess.ID)
	if err != nil {
		t.Fatalf("snapshot after release: %v", err)
	}
	if snap.Running || snap.Session.Status != game.SessionCompleted {
		t.Fatalf("unexpected snapshot: running=%v status=%s", snap.Running, snap.Session.Status)
	}
	select {
	case id := <-forgotten:
		t.Fatalf("session %s released twice", id)
	case <-time.After(50 * time.Millisecond):
	}
}
