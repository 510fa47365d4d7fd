package http

import (
	"encoding/json"
	stdhttp "net/http"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

type toggleReactionRequest struct {
	Kind model.ReactionKind `json:"kind"`
}

func (h *Handler) TogglePostReaction(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	h.toggleReaction(w, r, model.EntityPost)
}

func (h *Handler) ToggleCommentReaction(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	h.toggleReaction(w, r, model.EntityComment)
}

func (h *Handler) toggleReaction(w stdhttp.ResponseWriter, r *stdhttp.Request, kind model.EntityKind) {
	id, err := parseInt64(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, stdhttp.StatusBadRequest, "invalid id")
		return
	}

	var req toggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, stdhttp.StatusBadRequest, "bad json")
		return
	}

	ref := model.EntityRef{Kind: kind, ID: id}
	st, err := h.svc.ToggleReaction(r.Context(), viewerFrom(r.Context()).ID, ref, req.Kind)
	if err != nil {
		h.writeServiceError(w, r, err, string(kind)+" not found")
		return
	}

	writeJSON(w, stdhttp.StatusOK, st)
}

func (h *Handler) GetPostReaction(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	postID, err := parseInt64(r.PathValue("id"))
	if err != nil || postID <= 0 {
		writeError(w, stdhttp.StatusBadRequest, "invalid post id")
		return
	}

	st, err := h.svc.PostReaction(r.Context(), viewerFrom(r.Context()).ID, postID)
	if err != nil {
		h.writeServiceError(w, r, err, "post not found")
		return
	}

	writeJSON(w, stdhttp.StatusOK, st)
}
