package broadcast

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"career-bingo/internal/game"

	"github.com/gorilla/websocket"
)

type parsedSSE struct {
	ID    string
	Event string
	Data  string
}

func readEvent(rd *bufio.Reader) (parsedSSE, error) {
	ev := parsedSSE{}
	for {
		line, err := rd.ReadString('\n')
		if err != nil {
			return ev, err
		}
		line = strings.TrimRight(line, "\n")
		if line == "" {
			return ev, nil
		}
		switch {
		case strings.HasPrefix(line, "id: "):
			ev.ID = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "event: "):
			ev.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			ev.Data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func readEventWithTimeout(t *testing.T, rd *bufio.Reader, timeout time.Duration) parsedSSE {
	t.Helper()
	ch := make(chan parsedSSE, 1)
	errCh := make(chan error, 1)
	go func() {
		ev, err := readEvent(rd)
		if err != nil {
			errCh <- err
			return
		}
		ch <- ev
	}()
	select {
	case ev := <-ch:
		return ev
	case err := <-errCh:
		t.Fatalf("read event: %v", err)
	case <-time.After(timeout):
		t.Fatal("timeout waiting for sse event")
	}
	return parsedSSE{}
}

func publishJoin(t *testing.T, hub *Hub, sessionID, participantID string) {
	t.Helper()
	ev, err := NewParticipantJoined(game.Participant{ID: participantID, DisplayName: participantID, Kind: game.KindHuman})
	if err != nil {
		t.Fatalf("build event: %v", err)
	}
	if err := hub.Publish(context.Background(), sessionID, ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func streamServer(hub *Hub) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/events/", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeSSE(w, r, strings.TrimPrefix(r.URL.Path, "/events/"))
	})
	mux.HandleFunc("/ws/", func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, strings.TrimPrefix(r.URL.Path, "/ws/"))
	})
	return httptest.NewServer(mux)
}

func TestSSEReplayAfterLastEventIDThenLive(t *testing.T) {
	hub := NewHub(100)
	publishJoin(t, hub, "s1", "p1")
	publishJoin(t, hub, "s1", "p2")
	srv := streamServer(hub)
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/events/s1", nil)
	req.Header.Set("Last-Event-ID", "1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	rd := bufio.NewReader(resp.Body)

	ev := readEventWithTimeout(t, rd, 2*time.Second)
	if ev.ID != "2" || ev.Event != string(KindParticipantJoined) || !strings.Contains(ev.Data, `"participant_id":"p2"`) {
		t.Fatalf("unexpected replay event: %+v", ev)
	}

	publishJoin(t, hub, "s1", "p3")
	ev = readEventWithTimeout(t, rd, 2*time.Second)
	if ev.ID != "3" || !strings.Contains(ev.Data, `"participant_id":"p3"`) {
		t.Fatalf("unexpected live event: %+v", ev)
	}

	_ = hub.CloseSession(context.Background(), "s1")
	if _, err := readEvent(rd); err == nil {
		t.Fatal("expected stream to end after close")
	}
}

func TestWebSocketReplayAndClose(t *testing.T) {
	hub := NewHub(100)
	publishJoin(t, hub, "s1", "p1")
	srv := streamServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/s1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var ev StreamEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read replay: %v", err)
	}
	if ev.EventID != "1" || ev.Event != string(KindParticipantJoined) {
		t.Fatalf("unexpected replay: %+v", ev)
	}

	publishJoin(t, hub, "s1", "p2")
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read live: %v", err)
	}
	if ev.EventID != "2" {
		t.Fatalf("unexpected live event: %+v", ev)
	}

	_ = hub.CloseSession(context.Background(), "s1")
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
}
