package broadcast

import (
	"context"
	"encoding/json"
	"sync"
)

// Publisher is what the session loop and click processor talk to.
type Publisher interface {
	Publish(ctx context.Context, sessionID string, ev Event) error
	CloseSession(ctx context.Context, sessionID string) error
}

// Hub holds one EventBuffer per session in this process. Streams read from
// it; it is also a Publisher for single-instance deployments.
type Hub struct {
	mu        sync.Mutex
	bufferMax int
	buffers   map[string]*EventBuffer
}

func NewHub(bufferMax int) *Hub {
	return &Hub{bufferMax: bufferMax, buffers: map[string]*EventBuffer{}}
}

// Buffer returns the session's buffer, creating it on first use so clients
// may connect before the first event.
func (h *Hub) Buffer(sessionID string) *EventBuffer {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf := h.buffers[sessionID]
	if buf == nil {
		buf = NewEventBuffer(h.bufferMax)
		h.buffers[sessionID] = buf
	}
	return buf
}

func (h *Hub) Publish(_ context.Context, sessionID string, ev Event) error {
	kind, data, err := Encode(ev)
	if err != nil {
		metricPublishErrorsTotal.Add(1)
		return err
	}
	h.appendRaw(sessionID, kind, data)
	return nil
}

// CloseSession ends every open stream of the session. Buffered events stay
// available for replay until Forget.
func (h *Hub) CloseSession(_ context.Context, sessionID string) error {
	h.Buffer(sessionID).Close()
	return nil
}

// Has reports whether the session still has a buffer in this process.
func (h *Hub) Has(sessionID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.buffers[sessionID]
	return ok
}

// Forget drops the session's buffer and ends its streams. A later Buffer
// call starts from an empty one.
func (h *Hub) Forget(sessionID string) {
	h.mu.Lock()
	buf := h.buffers[sessionID]
	delete(h.buffers, sessionID)
	h.mu.Unlock()
	if buf != nil {
		buf.Close()
	}
}

func (h *Hub) appendRaw(sessionID string, kind Kind, data json.RawMessage) {
	if ev := h.Buffer(sessionID).Append(string(kind), sessionID, data); ev.EventID != "" {
		metricPublishedTotal.Add(1)
	}
}

// Encode validates ev and returns its wire form.
func Encode(ev Event) (Kind, json.RawMessage, error) {
	if ev == nil {
		return "", nil, ErrInvalidEvent
	}
	if err := ev.validate(); err != nil {
		return "", nil, err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return "", nil, err
	}
	return ev.Kind(), data, nil
}
