package httptransport

import (
	"encoding/json"
	"net/http"

	"career-bingo/internal/game"
	"career-bingo/internal/match"

	"github.com/go-chi/chi/v5"
)

type SessionHandlers struct {
	reg     *match.Registry
	limiter *ClickLimiter
}

func NewSessionHandlers(reg *match.Registry, limiter *ClickLimiter) *SessionHandlers {
	return &SessionHandlers{reg: reg, limiter: limiter}
}

func (h *SessionHandlers) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.reg.Snapshot(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			status, code := MapDomainError(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

type joinResponse struct {
	ParticipantID string      `json:"participant_id"`
	SessionID     string      `json:"session_id"`
	DisplayName   string      `json:"display_name"`
	Card          []string    `json:"card"`
	Unlocked      []game.Cell `json:"unlocked"`
}

func (h *SessionHandlers) Join() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricJoinTotal.Add(1)
		var req match.JoinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metricJoinErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		p, err := h.reg.Join(r.Context(), chi.URLParam(r, "session_id"), req)
		if err != nil {
			metricJoinErrors.Add(1)
			status, code := MapDomainError(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, http.StatusCreated, joinResponse{
			ParticipantID: p.ID,
			SessionID:     p.SessionID,
			DisplayName:   p.DisplayName,
			Card:          p.Card.Slice(),
			Unlocked:      p.Unlocked.Cells(),
		})
	}
}

func (h *SessionHandlers) Leave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h.reg.Leave(r.Context(), chi.URLParam(r, "session_id"), chi.URLParam(r, "participant_id"))
		if err != nil {
			status, code := MapDomainError(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

type clickRequest struct {
	ParticipantID string `json:"participant_id"`
	Row           *int   `json:"row"`
	Col           *int   `json:"col"`
}

// Click submits a human answer. Stale clicks are 200 with applied=false and
// a reason; only malformed input is an error.
func (h *SessionHandlers) Click() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		metricClickSubmitTotal.Add(1)
		var req clickRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			metricClickSubmitErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_json")
			return
		}
		if req.ParticipantID == "" || req.Row == nil || req.Col == nil {
			metricClickSubmitErrors.Add(1)
			WriteHTTPError(w, http.StatusBadRequest, "invalid_request")
			return
		}
		if !h.limiter.Allow(req.ParticipantID) {
			metricClickRateLimited.Add(1)
			WriteHTTPError(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		res, err := h.reg.SubmitClick(r.Context(), chi.URLParam(r, "session_id"), req.ParticipantID, game.Cell{Row: *req.Row, Col: *req.Col})
		if err != nil {
			metricClickSubmitErrors.Add(1)
			status, code := MapDomainError(err)
			WriteHTTPError(w, status, code)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
