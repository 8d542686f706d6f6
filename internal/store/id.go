package store

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

type idSource struct {
	mu      sync.Mutex
	entropy io.Reader
}

var ids = &idSource{
	entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
}

func (s *idSource) next(now time.Time) ulid.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy)
}

// NewID returns a lexically sortable ULID string.
func NewID() string {
	return ids.next(time.Now()).String()
}
