package http

import (
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
	"github.com/MyNameIsWhaaat/peerthread/internal/comment/service"
	"github.com/MyNameIsWhaaat/peerthread/internal/identity"
)

type Handler struct {
	svc   service.Forum
	ident *identity.Verifier
	log   *zap.Logger
}

func New(svc service.Forum, ident *identity.Verifier, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, ident: ident, log: log}
}

type createCommentRequest struct {
	ParentID int64  `json:"parent_id"`
	Content  string `json:"content"`
}

func (h *Handler) CreateComment(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	postID, err := parseInt64(r.PathValue("id"))
	if err != nil || postID <= 0 {
		writeError(w, stdhttp.StatusBadRequest, "invalid post id")
		return
	}

	var req createCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, stdhttp.StatusBadRequest, "bad json")
		return
	}

	c, err := h.svc.Create(r.Context(), viewerFrom(r.Context()), postID, req.ParentID, req.Content)
	if err != nil {
		h.writeServiceError(w, r, err, "parent not found")
		return
	}

	writeJSON(w, stdhttp.StatusCreated, c)
}

func (h *Handler) GetComments(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	postID, err := parseInt64(r.PathValue("id"))
	if err != nil || postID <= 0 {
		writeError(w, stdhttp.StatusBadRequest, "invalid post id")
		return
	}

	q := r.URL.Query()

	page := 1
	if v := q.Get("page"); v != "" {
		parsed, err := parseInt(v)
		if err != nil {
			writeError(w, stdhttp.StatusBadRequest, "invalid page")
			return
		}
		page = parsed
	}

	limit := 20
	if v := q.Get("limit"); v != "" {
		parsed, err := parseInt(v)
		if err != nil {
			writeError(w, stdhttp.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	sortMode := model.Sort(q.Get("sort"))

	res, err := h.svc.GetTreePage(r.Context(), viewerFrom(r.Context()).ID, postID, page, limit, sortMode)
	if err != nil {
		h.writeServiceError(w, r, err, "not found")
		return
	}

	writeJSON(w, stdhttp.StatusOK, res)
}

func (h *Handler) Me(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	writeJSON(w, stdhttp.StatusOK, viewerFrom(r.Context()))
}

func (h *Handler) writeServiceError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error, notFound string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, stdhttp.StatusBadRequest, "invalid input")
	case errors.Is(err, service.ErrNotFound):
		writeError(w, stdhttp.StatusNotFound, notFound)
	default:
		h.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err))
		writeError(w, stdhttp.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w stdhttp.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func parseInt64(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return n, nil
}
