package thread

import (
	"time"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/tree"
)

// Row is one rendered comment.
type Row struct {
	ID            int64
	ParentID      int64
	Depth         int
	Indent        int
	Author        model.Author
	Badge         bool
	Content       string
	CreatedAt     time.Time
	Reaction      model.ReactionState
	ReactDisabled bool
	ReplyCount    int
	Expanded      bool
	Phase         Phase
	Draft         string
	Err           error
}

// Rows renders the visible part of the tree in display order. Replies of a
// comment follow it only while it is expanded.
func (c *Controller) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Row
	for _, n := range c.tree.Roots() {
		out = c.renderLocked(out, n, 0)
	}
	return out
}

func (c *Controller) renderLocked(out []Row, n *tree.Node, depth int) []Row {
	st := c.stateLocked(n)
	cm := n.Comment()
	out = append(out, Row{
		ID:            cm.ID,
		ParentID:      cm.ParentID,
		Depth:         depth,
		Indent:        min(depth, c.maxIndent),
		Author:        cm.Author,
		Badge:         cm.Author.VerifiedProfessional(),
		Content:       cm.Content,
		CreatedAt:     cm.CreatedAt,
		Reaction:      n.Reaction(),
		ReactDisabled: c.reactions.Disabled(model.CommentRef(cm.ID), c.viewer),
		ReplyCount:    n.ReplyCount(),
		Expanded:      st.expanded,
		Phase:         st.phase,
		Draft:         st.draft,
		Err:           st.err,
	})
	if !st.expanded {
		return out
	}
	for _, r := range n.Replies() {
		out = c.renderLocked(out, r, depth+1)
	}
	return out
}
