package http

import (
	stdhttp "net/http"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

func (h *Handler) UnreadCount(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	n, err := h.svc.UnreadCount(r.Context(), viewerFrom(r.Context()).ID)
	if err != nil {
		h.writeServiceError(w, r, err, "not found")
		return
	}
	writeJSON(w, stdhttp.StatusOK, model.UnreadCount{Count: n})
}

func (h *Handler) MarkRead(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	if err := h.svc.MarkRead(r.Context(), viewerFrom(r.Context()).ID); err != nil {
		h.writeServiceError(w, r, err, "not found")
		return
	}
	writeJSON(w, stdhttp.StatusOK, model.UnreadCount{Count: 0})
}
