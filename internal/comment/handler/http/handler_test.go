package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	handler "github.com/MyNameIsWhaaat/peerthread/internal/comment/handler/http"
	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
	"github.com/MyNameIsWhaaat/peerthread/internal/comment/service"
	inm "github.com/MyNameIsWhaaat/peerthread/internal/comment/storage/inmemory"
	"github.com/MyNameIsWhaaat/peerthread/internal/identity"
)

const testSecret = "test-secret"

var (
	member = model.Viewer{ID: "u1", Username: "river", Role: model.RoleMember}
	doctor = model.Viewer{ID: "u2", Username: "dr.lee", Role: model.RoleDoctor, Verified: true}
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := service.New(inm.New(), inm.NewReactions(), inm.NewUnread(), nil)
	h := handler.New(svc, identity.NewVerifier(testSecret), nil)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func token(t *testing.T, v model.Viewer) string {
	t.Helper()
	tok, err := identity.NewVerifier(testSecret).Sign(v, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func do(t *testing.T, method, url, tok string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case []byte:
			rd = bytes.NewReader(b)
		default:
			raw, _ := json.Marshal(body)
			rd = bytes.NewReader(raw)
		}
	}
	req, _ := http.NewRequest(method, url, rd)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	defer res.Body.Close()
	var v T
	if err := json.NewDecoder(res.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestCreateAndGetComments(t *testing.T) {
	srv := newServer(t)
	memberTok, doctorTok := token(t, member), token(t, doctor)

	res := do(t, http.MethodPost, srv.URL+"/posts/1/comments", memberTok, map[string]any{"content": "root"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 created, got %d", res.StatusCode)
	}
	root := decode[model.Comment](t, res)
	if root.Author.Username != "river" || root.ID == 0 || root.CreatedAt.IsZero() {
		t.Fatalf("unexpected created comment: %+v", root)
	}

	res = do(t, http.MethodPost, srv.URL+"/posts/1/comments", doctorTok,
		map[string]any{"parent_id": root.ID, "content": "reply"})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 created for reply, got %d", res.StatusCode)
	}
	reply := decode[model.Comment](t, res)

	res = do(t, http.MethodPost, srv.URL+"/comments/"+strconv.FormatInt(reply.ID, 10)+"/reactions", memberTok,
		map[string]any{"kind": "like"})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on reaction, got %d", res.StatusCode)
	}
	st := decode[model.ReactionState](t, res)
	if st.Likes != 1 || st.UserReaction != model.ReactionLike {
		t.Fatalf("unexpected reaction state: %+v", st)
	}

	res = do(t, http.MethodGet, srv.URL+"/posts/1/comments", memberTok, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", res.StatusCode)
	}
	tp := decode[model.TreePage](t, res)
	if tp.Total != 1 || len(tp.Items) != 1 || len(tp.Items[0].Replies) != 1 {
		t.Fatalf("unexpected tree page: %+v", tp)
	}
	got := tp.Items[0].Replies[0]
	if !got.Author.VerifiedProfessional() || got.Reactions.Likes != 1 || got.ViewerReaction != model.ReactionLike {
		t.Fatalf("unexpected reply in tree: %+v", got)
	}

	res = do(t, http.MethodGet, srv.URL+"/notifications/unread-count", memberTok, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on unread, got %d", res.StatusCode)
	}
	if n := decode[model.UnreadCount](t, res); n.Count != 1 {
		t.Fatalf("expected 1 unread, got %d", n.Count)
	}

	res = do(t, http.MethodPost, srv.URL+"/notifications/read", memberTok, nil)
	_ = res.Body.Close()
	res = do(t, http.MethodGet, srv.URL+"/notifications/unread-count", memberTok, nil)
	if n := decode[model.UnreadCount](t, res); n.Count != 0 {
		t.Fatalf("expected 0 unread after read, got %d", n.Count)
	}
}

func TestGetPostReaction(t *testing.T) {
	srv := newServer(t)
	memberTok := token(t, member)

	res := do(t, http.MethodPost, srv.URL+"/posts/5/reactions", memberTok, map[string]any{"kind": "like"})
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on post reaction, got %d", res.StatusCode)
	}

	res = do(t, http.MethodGet, srv.URL+"/posts/5/reactions", memberTok, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 ok, got %d", res.StatusCode)
	}
	st := decode[model.ReactionState](t, res)
	if st.Likes != 1 || st.UserReaction != model.ReactionLike {
		t.Fatalf("unexpected post reaction for liker: %+v", st)
	}

	res = do(t, http.MethodGet, srv.URL+"/posts/5/reactions", token(t, doctor), nil)
	st = decode[model.ReactionState](t, res)
	if st.Likes != 1 || st.UserReaction != model.ReactionNone {
		t.Fatalf("unexpected post reaction for other viewer: %+v", st)
	}

	res = do(t, http.MethodGet, srv.URL+"/posts/0/reactions", memberTok, nil)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad post id, got %d", res.StatusCode)
	}
}

func TestMe(t *testing.T) {
	srv := newServer(t)

	res := do(t, http.MethodGet, srv.URL+"/me", token(t, doctor), nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.StatusCode)
	}
	if v := decode[model.Viewer](t, res); v != doctor {
		t.Fatalf("unexpected viewer: %+v", v)
	}
	if res.Header.Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRequiresToken(t *testing.T) {
	srv := newServer(t)

	for _, tok := range []string{"", "garbage"} {
		res := do(t, http.MethodGet, srv.URL+"/posts/1/comments", tok, nil)
		if res.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 for token %q, got %d", tok, res.StatusCode)
		}
		_ = res.Body.Close()
	}

	res := do(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("healthz should be public, got %d", res.StatusCode)
	}
	_ = res.Body.Close()
}

func TestHandlerValidationErrors(t *testing.T) {
	srv := newServer(t)
	tok := token(t, member)

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"bad json", http.MethodPost, "/posts/1/comments", []byte("{bad json"), http.StatusBadRequest},
		{"empty content", http.MethodPost, "/posts/1/comments", map[string]any{"content": "  "}, http.StatusBadRequest},
		{"missing parent", http.MethodPost, "/posts/1/comments", map[string]any{"parent_id": 99, "content": "x"}, http.StatusNotFound},
		{"invalid post id", http.MethodGet, "/posts/abc/comments", nil, http.StatusBadRequest},
		{"invalid page", http.MethodGet, "/posts/1/comments?page=notanint", nil, http.StatusBadRequest},
		{"invalid limit", http.MethodGet, "/posts/1/comments?limit=notanint", nil, http.StatusBadRequest},
		{"limit out of range", http.MethodGet, "/posts/1/comments?limit=1000", nil, http.StatusBadRequest},
		{"unknown reaction", http.MethodPost, "/posts/1/reactions", map[string]any{"kind": "hug"}, http.StatusBadRequest},
		{"reaction on missing comment", http.MethodPost, "/comments/5/reactions", map[string]any{"kind": "like"}, http.StatusNotFound},
		{"comment delete not offered", http.MethodDelete, "/comments/5", nil, http.StatusNotFound},
		{"wrong method on reactions", http.MethodGet, "/comments/5/reactions", nil, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		res := do(t, tc.method, srv.URL+tc.path, tok, tc.body)
		if res.StatusCode != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, res.StatusCode)
		}
		_ = res.Body.Close()
	}
}
