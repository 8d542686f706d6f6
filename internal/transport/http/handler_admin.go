package httptransport

import (
	"context"
	"net/http"

	"career-bingo/internal/match"

	"github.com/go-chi/chi/v5"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type AdminHandlers struct {
	reg   *match.Registry
	store Pinger
	redis Pinger
}

func NewAdminHandlers(reg *match.Registry, st Pinger, rdb Pinger) *AdminHandlers {
	return &AdminHandlers{reg: reg, store: st, redis: rdb}
}

func (h *AdminHandlers) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"ok": true, "db": "up"}
		status := http.StatusOK
		if h.store != nil {
			if err := h.store.Ping(r.Context()); err != nil {
				body["ok"] = false
				body["db"] = "down"
				status = http.StatusServiceUnavailable
			}
		}
		if h.redis != nil {
			body["redis"] = "up"
			if err := h.redis.Ping(r.Context()); err != nil {
				body["ok"] = false
				body["redis"] = "down"
				status = http.StatusServiceUnavailable
			}
		}
		writeJSON(w, status, body)
	}
}

func (h *AdminHandlers) OpenSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricSessionOpenTotal.Add(1)
		sess, err := h.reg.OpenSession(r.Context(), chi.URLParam(r, "room_id"))
		if err != nil {
			metricSessionOpenErrors.Add(1)
			status, code := MapDomainError(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, http.StatusCreated, sess)
	}
}

func (h *AdminHandlers) StartSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		started, err := h.reg.Start(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			status, code := MapDomainError(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "started": started})
	}
}

func (h *AdminHandlers) StopSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "session_id")
		stopped := h.reg.Stop(sessionID)
		if !stopped {
			if _, err := h.reg.Snapshot(r.Context(), sessionID); err != nil {
				status, code := MapDomainError(err)
				WriteHTTPError(w, status, code)
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "stopped": stopped})
	}
}
