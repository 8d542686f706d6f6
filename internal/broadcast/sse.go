package broadcast

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

var ssePingInterval = 15 * time.Second

// SetSSEHeaders applies headers that keep event streams stable across proxies.
func SetSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Content-Type-Options", "nosniff")
}

func WriteSSE(w http.ResponseWriter, ev StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if ev.EventID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", ev.EventID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", ev.Event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return nil
}

// ServeSSE streams the session's events, replaying anything after the
// Last-Event-ID header first. It returns when the client goes away or the
// session's stream is closed.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request, sessionID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"stream_not_supported"}`, http.StatusInternalServerError)
		return
	}
	buf := h.Buffer(sessionID)
	// subscribe before replay so nothing published in between is lost
	ch := buf.Subscribe()
	defer buf.Unsubscribe(ch)

	metricSSEConnectionsActive.Add(1)
	defer metricSSEConnectionsActive.Add(-1)

	SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	lastEventID := r.Header.Get("Last-Event-ID")
	if lastEventID == "" {
		lastEventID = r.URL.Query().Get("last_event_id")
	}
	sent := int64(0)
	for _, ev := range buf.ReplayAfter(lastEventID) {
		if err := WriteSSE(w, ev); err != nil {
			return
		}
		sent = eventSeq(ev)
	}
	flusher.Flush()

	ticker := time.NewTicker(ssePingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if eventSeq(ev) <= sent {
				continue
			}
			if err := WriteSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			ping := StreamEvent{
				Event:     "ping",
				SessionID: sessionID,
				ServerTS:  time.Now().UnixMilli(),
				Data:      json.RawMessage(fmt.Sprintf(`{"ts":%d}`, time.Now().UnixMilli())),
			}
			if err := WriteSSE(w, ping); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
