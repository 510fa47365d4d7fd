package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
	"github.com/MyNameIsWhaaat/peerthread/internal/identity"
)

type ctxKey int

const (
	viewerKey ctxKey = iota
	requestIDKey
)

const requestIDHeader = "X-Request-ID"

func viewerFrom(ctx context.Context) model.Viewer {
	v, _ := ctx.Value(viewerKey).(model.Viewer)
	return v
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// authenticated rejects requests without a valid bearer token.
func (h *Handler) authenticated(next stdhttp.HandlerFunc) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		tok, ok := identity.FromHeader(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, stdhttp.StatusUnauthorized, "missing token")
			return
		}
		v, err := h.ident.Parse(tok)
		if err != nil {
			h.log.Debug("token rejected", zap.String("request_id", requestIDFrom(r.Context())), zap.Error(err))
			writeError(w, stdhttp.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), viewerKey, v)))
	}
}

type statusRecorder struct {
	stdhttp.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// accessLog tags every request with an id and logs it once served.
func (h *Handler) accessLog(next stdhttp.Handler) stdhttp.Handler {
	return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		rec := &statusRecorder{ResponseWriter: w, status: stdhttp.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

		h.log.Info("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}
