// Package tree holds the comment hierarchy of one post.
//
// A Tree is owned by whoever displays the post and is not safe for
// concurrent use; the thread controller serializes access to it.
package tree

import (
	"iter"
	"strings"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
)

// Node is one comment. Only its replies and reaction state change after
// construction.
type Node struct {
	comment model.Comment
	state   model.ReactionState
	replies []*Node
}

func newNode(c model.Comment) *Node {
	n := &Node{
		state: model.ReactionState{
			Likes:        c.Reactions.Likes,
			Dislikes:     c.Reactions.Dislikes,
			UserReaction: c.ViewerReaction,
		},
	}
	for _, r := range c.Replies {
		n.replies = append(n.replies, newNode(r))
	}
	c.Replies = nil
	n.comment = c
	return n
}

func (n *Node) ID() int64 { return n.comment.ID }

func (n *Node) ParentID() int64 { return n.comment.ParentID }

// Comment returns the comment without its replies, with current counts.
func (n *Node) Comment() model.Comment {
	c := n.comment
	c.Reactions = n.state.Counts()
	c.ViewerReaction = n.state.UserReaction
	return c
}

func (n *Node) Reaction() model.ReactionState { return n.state }

func (n *Node) Replies() []*Node { return n.replies }

func (n *Node) ReplyCount() int { return len(n.replies) }

func (n *Node) snapshot() model.Comment {
	c := n.Comment()
	c.Replies = make([]model.Comment, 0, len(n.replies))
	for _, r := range n.replies {
		c.Replies = append(c.Replies, r.snapshot())
	}
	return c
}

// Visit is one step of a depth-first traversal. Depth counts ancestors.
type Visit struct {
	Node  *Node
	Depth int
}

type Tree struct {
	postID int64
	roots  []*Node
}

// Build constructs a tree from the server's nested shape. The input is
// trusted to be acyclic and partitioned by parent.
func Build(postID int64, comments []model.Comment) *Tree {
	t := &Tree{postID: postID}
	for _, c := range comments {
		t.roots = append(t.roots, newNode(c))
	}
	return t
}

func (t *Tree) PostID() int64 { return t.postID }

func (t *Tree) Roots() []*Node { return t.roots }

// Walk yields every node depth-first, parents before children. Each range
// over the returned sequence starts again from the roots.
func (t *Tree) Walk() iter.Seq[Visit] {
	return func(yield func(Visit) bool) {
		walk(t.roots, 0, yield)
	}
}

func walk(nodes []*Node, depth int, yield func(Visit) bool) bool {
	for _, n := range nodes {
		if !yield(Visit{Node: n, Depth: depth}) {
			return false
		}
		if !walk(n.replies, depth+1, yield) {
			return false
		}
	}
	return true
}

func (t *Tree) Len() int {
	n := 0
	for range t.Walk() {
		n++
	}
	return n
}

func (t *Tree) Find(id int64) *Node {
	return find(t.roots, id)
}

func find(nodes []*Node, id int64) *Node {
	for _, n := range nodes {
		if n.comment.ID == id {
			return n
		}
		if hit := find(n.replies, id); hit != nil {
			return hit
		}
	}
	return nil
}

// InsertReply appends c to the replies of parentID. It is a no-op returning
// false when the parent is missing, c names another parent or post, or c is
// already in the tree.
func (t *Tree) InsertReply(parentID int64, c model.Comment) bool {
	if parentID == 0 || c.ParentID != parentID || !t.accepts(c) {
		return false
	}
	parent := t.Find(parentID)
	if parent == nil {
		return false
	}
	parent.replies = append(parent.replies, newNode(c))
	return true
}

// Insert places c at the end of the root list or of its parent's replies.
func (t *Tree) Insert(c model.Comment) bool {
	if !c.TopLevel() {
		return t.InsertReply(c.ParentID, c)
	}
	if !t.accepts(c) {
		return false
	}
	t.roots = append(t.roots, newNode(c))
	return true
}

func (t *Tree) accepts(c model.Comment) bool {
	if c.ID == 0 || t.Find(c.ID) != nil {
		return false
	}
	return c.PostID == 0 || c.PostID == t.postID
}

// SetReaction replaces the cached reaction state of a comment.
func (t *Tree) SetReaction(id int64, st model.ReactionState) bool {
	n := t.Find(id)
	if n == nil {
		return false
	}
	n.state = st
	return true
}

// Search returns the nodes whose content or author contains query,
// ignoring case, in traversal order.
func (t *Tree) Search(query string) []Visit {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Visit
	for v := range t.Walk() {
		c := v.Node.comment
		if strings.Contains(strings.ToLower(c.Content), q) ||
			strings.Contains(strings.ToLower(c.Author.Username), q) {
			out = append(out, v)
		}
	}
	return out
}

// Snapshot returns the tree in the server's nested shape.
func (t *Tree) Snapshot() []model.Comment {
	out := make([]model.Comment, 0, len(t.roots))
	for _, n := range t.roots {
		out = append(out, n.snapshot())
	}
	return out
}
