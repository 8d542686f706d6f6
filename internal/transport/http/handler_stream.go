package httptransport

import (
	"net/http"

	"career-bingo/internal/broadcast"
	"career-bingo/internal/game"
	"career-bingo/internal/match"

	"github.com/go-chi/chi/v5"
)

type StreamHandlers struct {
	hub *broadcast.Hub
	reg *match.Registry
}

func NewStreamHandlers(hub *broadcast.Hub, reg *match.Registry) *StreamHandlers {
	return &StreamHandlers{hub: hub, reg: reg}
}

func (h *StreamHandlers) Events() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := h.resolve(w, r)
		if !ok {
			return
		}
		metricStreamConnectTotal.Add(1)
		h.hub.ServeSSE(w, r, sessionID)
	}
}

func (h *StreamHandlers) WS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID, ok := h.resolve(w, r)
		if !ok {
			return
		}
		metricStreamConnectTotal.Add(1)
		h.hub.ServeWS(w, r, sessionID)
	}
}

// resolve rejects streams for unknown sessions so the hub never allocates a
// buffer for them. A completed session whose buffer was already released has
// nothing left to replay and would never close, so it is refused too.
func (h *StreamHandlers) resolve(w http.ResponseWriter, r *http.Request) (string, bool) {
	sessionID := chi.URLParam(r, "session_id")
	snap, err := h.reg.Snapshot(r.Context(), sessionID)
	if err != nil {
		status, code := MapDomainError(err)
		WriteHTTPError(w, status, code)
		return "", false
	}
	if snap.Session.Status == game.SessionCompleted && !h.hub.Has(sessionID) {
		WriteHTTPError(w, http.StatusConflict, "session_completed")
		return "", false
	}
	return sessionID, true
}
