package httptransport

import "net/http"

type PublicHandlers struct {
	rooms RoomLister
}

func NewPublicHandlers(rooms RoomLister) *PublicHandlers {
	return &PublicHandlers{rooms: rooms}
}

func (h *PublicHandlers) Rooms() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rooms, err := h.rooms.ListRooms(r.Context())
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": rooms})
	}
}
