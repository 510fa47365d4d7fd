package tree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

const post = int64(10)

func comment(id, parent int64, content string, replies ...model.Comment) model.Comment {
	return model.Comment{
		ID:        id,
		PostID:    post,
		ParentID:  parent,
		Author:    model.Author{ID: "u", Username: "user"},
		Content:   content,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, int(id), 0, time.UTC),
		Replies:   replies,
	}
}

// sample:
//
//	1 A
//	  3 A.1
//	    5 A.1.a
//	  4 A.2
//	2 B
func sample() []model.Comment {
	return []model.Comment{
		comment(1, 0, "A",
			comment(3, 1, "A.1", comment(5, 3, "A.1.a")),
			comment(4, 1, "A.2"),
		),
		comment(2, 0, "B"),
	}
}

func TestWalkDepthFirstWithAncestorDepth(t *testing.T) {
	tr := Build(post, sample())

	var ids []int64
	var depths []int
	for v := range tr.Walk() {
		ids = append(ids, v.Node.ID())
		depths = append(depths, v.Depth)
	}
	assert.Equal(t, []int64{1, 3, 5, 4, 2}, ids)
	assert.Equal(t, []int{0, 1, 2, 1, 0}, depths)
	assert.Equal(t, 5, tr.Len())
}

func TestWalkDeepChainVisitsEveryNodeOnce(t *testing.T) {
	const n = 200
	var chain model.Comment
	for id := int64(n); id >= 1; id-- {
		c := comment(id, id-1, "x")
		if id < n {
			c.Replies = []model.Comment{chain}
		}
		chain = c
	}
	tr := Build(post, []model.Comment{chain})

	seen := map[int64]int{}
	for v := range tr.Walk() {
		seen[v.Node.ID()]++
		assert.Equal(t, int(v.Node.ID()-1), v.Depth)
	}
	assert.Len(t, seen, n)
	for id, count := range seen {
		assert.Equal(t, 1, count, "node %d visited more than once", id)
	}
}

func TestWalkIsRestartableAndStopsEarly(t *testing.T) {
	tr := Build(post, sample())
	seq := tr.Walk()

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	assert.Equal(t, first, second)

	visited := 0
	for range seq {
		visited++
		if visited == 2 {
			break
		}
	}
	assert.Equal(t, 2, visited)
}

func TestInsertReplyAppendsOnceAtEnd(t *testing.T) {
	tr := Build(post, sample())
	before := tr.Snapshot()

	reply := comment(6, 1, "A.3")
	require.True(t, tr.InsertReply(1, reply))

	parent := tr.Find(1)
	require.NotNil(t, parent)
	replies := parent.Replies()
	require.Len(t, replies, 3)
	assert.Equal(t, int64(6), replies[2].ID())

	count := 0
	for v := range tr.Walk() {
		if v.Node.ID() == 6 {
			count++
		}
	}
	assert.Equal(t, 1, count)

	// everything else is untouched
	after := tr.Snapshot()
	after[0].Replies = after[0].Replies[:2]
	assert.Equal(t, before, after)

	assert.False(t, tr.InsertReply(1, reply), "same comment must not land twice")
}

func TestInsertReplyMissingParentIsNoop(t *testing.T) {
	tr := Build(post, sample())
	before := tr.Snapshot()

	assert.False(t, tr.InsertReply(99, comment(7, 99, "orphan")))
	assert.Equal(t, before, tr.Snapshot())
}

func TestInsertReplyKeepsParentInvariant(t *testing.T) {
	tr := Build(post, sample())
	before := tr.Snapshot()

	assert.False(t, tr.InsertReply(1, comment(7, 2, "says parent 2")))

	other := comment(8, 1, "other post")
	other.PostID = post + 1
	assert.False(t, tr.InsertReply(1, other))

	assert.Equal(t, before, tr.Snapshot())
}

func TestInsertTopLevelAndReply(t *testing.T) {
	tr := Build(post, nil)
	require.True(t, tr.Insert(comment(1, 0, "first")))
	require.True(t, tr.Insert(comment(2, 1, "reply")))
	require.True(t, tr.Insert(comment(3, 0, "second")))

	roots := tr.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, int64(3), roots[1].ID())
	assert.Equal(t, 1, roots[0].ReplyCount())
	assert.False(t, tr.Insert(comment(0, 0, "no id")))
}

func TestRepliesOutOfOrderLandUnderTheirParents(t *testing.T) {
	tr := Build(post, sample())

	// responses for replies to different parents may arrive in any order
	require.True(t, tr.InsertReply(2, comment(21, 2, "to B")))
	require.True(t, tr.InsertReply(5, comment(51, 5, "to A.1.a")))
	require.True(t, tr.InsertReply(2, comment(22, 2, "to B again")))

	b := tr.Find(2)
	require.Len(t, b.Replies(), 2)
	assert.Equal(t, int64(21), b.Replies()[0].ID())
	assert.Equal(t, int64(22), b.Replies()[1].ID())
	assert.Equal(t, int64(51), tr.Find(5).Replies()[0].ID())
}

func TestSetReactionOnlyTouchesCounts(t *testing.T) {
	tr := Build(post, sample())
	orig := tr.Find(3).Comment()

	st := model.ReactionState{Likes: 3, Dislikes: 1, UserReaction: model.ReactionLike}
	require.True(t, tr.SetReaction(3, st))
	assert.False(t, tr.SetReaction(404, st))

	got := tr.Find(3).Comment()
	assert.Equal(t, model.ReactionCounts{Likes: 3, Dislikes: 1}, got.Reactions)
	assert.Equal(t, model.ReactionLike, got.ViewerReaction)
	assert.Equal(t, orig.Content, got.Content)
	assert.Equal(t, orig.Author, got.Author)
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
	assert.Equal(t, orig.ParentID, got.ParentID)
}

func TestSearch(t *testing.T) {
	tr := Build(post, sample())
	hits := tr.Search("a.1")
	require.Len(t, hits, 2)
	assert.Equal(t, int64(3), hits[0].Node.ID())
	assert.Equal(t, 2, hits[1].Depth)
	assert.Empty(t, tr.Search("   "))
}
