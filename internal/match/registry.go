package match

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/game"
	"career-bingo/internal/oracle"
	"career-bingo/internal/selector"
	"career-bingo/internal/store"

	"github.com/rs/zerolog/log"
)

type Options struct {
	Selector *selector.Selector
	Oracle   oracle.Oracle
	// Rand deals cards; seeded from the clock when nil.
	Rand *rand.Rand
	Now  func() time.Time
	// RetainFinished keeps a finished run (summary, Done channel) this long
	// before it is dropped and OnForget is called. Zero keeps runs forever.
	RetainFinished time.Duration
	OnForget       func(sessionID string)
}

// Registry owns one loop per running session. Each run has its own
// cancellation scope; Stop cancels it together with every pending agent task.
type Registry struct {
	repo     Repository
	pub      broadcast.Publisher
	proc     *Processor
	selector *selector.Selector
	oracle   oracle.Oracle
	now      func() time.Time
	retain   time.Duration
	onForget func(sessionID string)

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu   sync.Mutex
	runs map[string]*sessionRun
	wg   sync.WaitGroup
}

func NewRegistry(repo Repository, pub broadcast.Publisher, opts Options) *Registry {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Selector == nil {
		opts.Selector = selector.New(repo, 0, 0, nil)
	}
	if opts.Oracle == nil {
		opts.Oracle = oracle.NewHeuristic(nil)
	}
	proc := NewProcessor(repo, pub)
	proc.now = opts.Now
	return &Registry{
		repo:     repo,
		pub:      pub,
		proc:     proc,
		selector: opts.Selector,
		oracle:   opts.Oracle,
		now:      opts.Now,
		retain:   opts.RetainFinished,
		onForget: opts.OnForget,
		rnd:      opts.Rand,
		runs:     map[string]*sessionRun{},
	}
}

func (r *Registry) Processor() *Processor { return r.proc }

type sessionRun struct {
	sessionID string
	cancel    context.CancelFunc
	done      chan struct{}
	endOnce   sync.Once

	mu       sync.Mutex
	room     game.Room
	active   *ActiveQuestion
	answered map[string]struct{}
	summary  *Summary
}

func (s *sessionRun) openQuestion(q *ActiveQuestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = q
	s.answered = map[string]struct{}{}
}

func (s *sessionRun) closeQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = nil
	s.answered = nil
}

func (s *sessionRun) current() *ActiveQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// reserveAnswer marks participantID as answering the open question. It
// returns the question, or nil with a stale reason.
func (s *sessionRun) reserveAnswer(participantID string) (*ActiveQuestion, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil, ReasonNoActiveQuestion
	}
	if _, ok := s.answered[participantID]; ok {
		return nil, ReasonAlreadyAnswered
	}
	s.answered[participantID] = struct{}{}
	return s.active, ""
}

func (s *sessionRun) releaseAnswer(q *ActiveQuestion, participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == q && s.answered != nil {
		delete(s.answered, participantID)
	}
}

func (s *sessionRun) corners() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room.CornersEnabled
}

// Start launches the session loop. It returns false without error when the
// session already has a loop in this registry or is already completed.
func (r *Registry) Start(ctx context.Context, sessionID string) (bool, error) {
	sess, err := r.repo.GetSession(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if sess.Status == game.SessionCompleted {
		return false, nil
	}
	room, err := r.repo.GetRoom(ctx, sess.RoomID)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	if _, ok := r.runs[sessionID]; ok {
		r.mu.Unlock()
		return false, nil
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := &sessionRun{sessionID: sessionID, cancel: cancel, done: make(chan struct{}), room: *room}
	r.runs[sessionID] = run
	r.wg.Add(1)
	r.mu.Unlock()

	if err := r.repo.MarkSessionActive(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("mark session active failed")
	}
	metricSessionsRunning.Add(1)
	log.Info().Str("session_id", sessionID).Str("room_id", room.ID).Int("game_number", sess.GameNumber).Msg("session loop started")
	go r.run(runCtx, run)
	return true, nil
}

// Stop cancels the session's loop and pending agent tasks. It does not wait;
// use Done to observe the end-of-game. Calling it again is a no-op.
func (r *Registry) Stop(sessionID string) bool {
	r.mu.Lock()
	run := r.runs[sessionID]
	r.mu.Unlock()
	if run == nil {
		return false
	}
	run.cancel()
	return true
}

// Done is closed once the session's loop and end-of-game have finished. It
// returns nil for sessions never started in this registry.
func (r *Registry) Done(sessionID string) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run := r.runs[sessionID]; run != nil {
		return run.done
	}
	return nil
}

func (r *Registry) Running(sessionID string) bool {
	r.mu.Lock()
	run := r.runs[sessionID]
	r.mu.Unlock()
	if run == nil {
		return false
	}
	select {
	case <-run.done:
		return false
	default:
		return true
	}
}

// Shutdown stops every session and waits for the loops to finish or ctx to
// expire.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	for _, run := range r.runs {
		run.cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Registry) scheduleForget(run *sessionRun) {
	if r.retain <= 0 {
		return
	}
	time.AfterFunc(r.retain, func() { r.forget(run) })
}

// forget drops a finished run. Start keeps refusing the session through its
// stored completed status.
func (r *Registry) forget(run *sessionRun) {
	r.mu.Lock()
	if r.runs[run.sessionID] != run {
		r.mu.Unlock()
		return
	}
	delete(r.runs, run.sessionID)
	r.mu.Unlock()
	if r.onForget != nil {
		r.onForget(run.sessionID)
	}
	log.Debug().Str("session_id", run.sessionID).Msg("finished session released")
}

func (r *Registry) lookup(sessionID string) *sessionRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[sessionID]
}

// SubmitClick is the human entry point. The question and response time come
// from the session's open window; each participant answers once per question.
func (r *Registry) SubmitClick(ctx context.Context, sessionID, participantID string, cell game.Cell) (ClickResult, error) {
	if !cell.Valid() {
		return ClickResult{}, ErrInvalidCell
	}
	run := r.lookup(sessionID)
	if run == nil {
		if _, err := r.repo.GetSession(ctx, sessionID); err != nil {
			return ClickResult{}, err
		}
		return r.proc.ProcessClick(context.WithoutCancel(ctx), ClickInput{
			SessionID: sessionID, ParticipantID: participantID, Cell: cell, Source: game.SourceHuman,
		})
	}
	return r.submit(ctx, run, participantID, cell, 0, game.SourceHuman)
}

// submit runs one click against the run's open question. responseTime of
// zero means "measure from question start".
func (r *Registry) submit(ctx context.Context, run *sessionRun, participantID string, cell game.Cell, responseTime time.Duration, source game.ClickSource) (ClickResult, error) {
	// in-flight clicks finish even if the session is stopped meanwhile
	ctx = context.WithoutCancel(ctx)
	in := ClickInput{
		SessionID:      run.sessionID,
		ParticipantID:  participantID,
		Cell:           cell,
		Source:         source,
		CornersEnabled: run.corners(),
	}
	q, reason := run.reserveAnswer(participantID)
	if q == nil {
		if reason == ReasonAlreadyAnswered {
			if _, err := r.proc.loadParticipant(ctx, run.sessionID, participantID); err != nil {
				return ClickResult{}, err
			}
			return stale(reason), nil
		}
		return r.proc.ProcessClick(ctx, in)
	}
	in.Question = q
	in.ResponseTime = responseTime
	if in.ResponseTime <= 0 {
		in.ResponseTime = r.now().Sub(q.StartedAt)
	}
	res, err := r.proc.ProcessClick(ctx, in)
	if err != nil || !res.Applied {
		run.releaseAnswer(q, participantID)
	}
	return res, err
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
