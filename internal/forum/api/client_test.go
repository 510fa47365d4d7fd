package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/MyNameIsWhaaat/peerthread/internal/comment/handler/http"
	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
	"github.com/MyNameIsWhaaat/peerthread/internal/comment/service"
	inm "github.com/MyNameIsWhaaat/peerthread/internal/comment/storage/inmemory"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/api"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/reaction"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/thread"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/tree"
	"github.com/MyNameIsWhaaat/peerthread/internal/identity"
)

const secret = "client-test"

var (
	river = model.Viewer{ID: "u1", Username: "river", Role: model.RoleMember}
	drLee = model.Viewer{ID: "u2", Username: "dr.lee", Role: model.RoleDoctor, Verified: true}
)

func newServer(t *testing.T) string {
	t.Helper()
	svc := service.New(inm.New(), inm.NewReactions(), inm.NewUnread(), nil)
	srv := httptest.NewServer(handler.New(svc, identity.NewVerifier(secret), nil).Routes())
	t.Cleanup(srv.Close)
	return srv.URL
}

func newClient(t *testing.T, baseURL string, v model.Viewer, opts ...api.Option) *api.Client {
	t.Helper()
	tok, err := identity.NewVerifier(secret).Sign(v, time.Hour)
	require.NoError(t, err)
	c, err := api.New(baseURL, tok, opts...)
	require.NoError(t, err)
	return c
}

func TestThreadRoundTrip(t *testing.T) {
	ctx := context.Background()
	base := newServer(t)
	member := newClient(t, base, river, api.WithPageLimit(1))
	doctor := newClient(t, base, drLee)

	me, err := member.FetchViewer(ctx)
	require.NoError(t, err)
	assert.Equal(t, river, me)

	a, err := member.CreateComment(ctx, 5, 0, "first")
	require.NoError(t, err)
	b, err := member.CreateComment(ctx, 5, 0, "second")
	require.NoError(t, err)
	reply, err := doctor.CreateComment(ctx, 5, a.ID, "hang in there")
	require.NoError(t, err)
	assert.Equal(t, a.ID, reply.ParentID)

	// page limit 1 forces the client to walk pages
	comments, err := member.FetchComments(ctx, 5)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, a.ID, comments[0].ID)
	assert.Equal(t, b.ID, comments[1].ID)
	require.Len(t, comments[0].Replies, 1)
	assert.True(t, comments[0].Replies[0].Author.VerifiedProfessional())

	st, err := member.ToggleReaction(ctx, model.CommentRef(reply.ID), model.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, model.ReactionState{Likes: 1, UserReaction: model.ReactionLike}, st)
	st, err = member.ToggleReaction(ctx, model.CommentRef(reply.ID), model.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, model.ReactionState{Dislikes: 1, UserReaction: model.ReactionDislike}, st)

	st, err = doctor.ToggleReaction(ctx, model.PostRef(5), model.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.Likes)

	n, err := member.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, member.MarkNotificationsRead(ctx))
	n, err = member.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostReactionSeedsController(t *testing.T) {
	ctx := context.Background()
	base := newServer(t)
	c := newClient(t, base, river)

	_, err := c.ToggleReaction(ctx, model.PostRef(5), model.ReactionLike)
	require.NoError(t, err)

	comments, err := c.FetchComments(ctx, 5)
	require.NoError(t, err)
	ctrl := thread.New(tree.Build(5, comments), &river, c, reaction.NewStore(c, nil))

	st, err := c.FetchPostReaction(ctx, 5)
	require.NoError(t, err)
	ctrl.SeedPostReaction(st)
	assert.Equal(t, model.ReactionState{Likes: 1, UserReaction: model.ReactionLike}, ctrl.PostReaction())

	// the same post seen by someone who has not reacted
	other, err := newClient(t, base, drLee).FetchPostReaction(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, model.ReactionState{Likes: 1}, other)
}

func TestFetchCommentsEmptyPost(t *testing.T) {
	c := newClient(t, newServer(t), river)
	comments, err := c.FetchComments(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestErrorsCarryStatus(t *testing.T) {
	ctx := context.Background()
	base := newServer(t)

	c := newClient(t, base, river)
	_, err := c.CreateComment(ctx, 1, 999, "orphan")
	require.Error(t, err)
	assert.True(t, api.IsStatus(err, http.StatusNotFound))

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "parent not found", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)

	_, err = c.ToggleReaction(ctx, model.CommentRef(1), "hug")
	assert.True(t, api.IsStatus(err, http.StatusBadRequest))

	anon, err := api.New(base, "")
	require.NoError(t, err)
	_, err = anon.FetchViewer(ctx)
	assert.True(t, api.IsStatus(err, http.StatusUnauthorized))
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := api.New("localhost:8080", "x")
	assert.Error(t, err)
	_, err = api.New("/api", "x")
	assert.Error(t, err)
}

func TestContextCancelled(t *testing.T) {
	c := newClient(t, newServer(t), river)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.UnreadCount(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
