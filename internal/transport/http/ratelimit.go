package httptransport

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

// ClickLimiter holds one token bucket per participant.
type ClickLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	entries   map[string]*limiterEntry
	lastPrune time.Time
}

type limiterEntry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewClickLimiter returns nil when perSec is not positive, which disables
// limiting.
func NewClickLimiter(perSec float64, burst int) *ClickLimiter {
	if perSec <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &ClickLimiter{
		limit:   rate.Limit(perSec),
		burst:   burst,
		now:     time.Now,
		entries: map[string]*limiterEntry{},
	}
}

func (l *ClickLimiter) Allow(participantID string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if now.Sub(l.lastPrune) > limiterIdleTTL {
		for id, e := range l.entries {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(l.entries, id)
			}
		}
		l.lastPrune = now
	}
	e, ok := l.entries[participantID]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.entries[participantID] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}
