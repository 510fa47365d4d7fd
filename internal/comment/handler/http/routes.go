package http

import (
	stdhttp "net/http"
)

func (h *Handler) Routes() stdhttp.Handler {
	mux := stdhttp.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(stdhttp.StatusOK)
		_, _ = w.Write([]byte(`{"result":"ok"}`))
	})

	mux.HandleFunc("GET /me", h.authenticated(h.Me))
	mux.HandleFunc("GET /posts/{id}/comments", h.authenticated(h.GetComments))
	mux.HandleFunc("POST /posts/{id}/comments", h.authenticated(h.CreateComment))
	mux.HandleFunc("GET /posts/{id}/reactions", h.authenticated(h.GetPostReaction))
	mux.HandleFunc("POST /posts/{id}/reactions", h.authenticated(h.TogglePostReaction))
	mux.HandleFunc("POST /comments/{id}/reactions", h.authenticated(h.ToggleCommentReaction))
	mux.HandleFunc("GET /notifications/unread-count", h.authenticated(h.UnreadCount))
	mux.HandleFunc("POST /notifications/read", h.authenticated(h.MarkRead))

	return h.accessLog(mux)
}
