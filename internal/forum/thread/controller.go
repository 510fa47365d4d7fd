// Package thread renders a post's comment tree and owns the transient UI
// state around it: reply forms, expansion, and in-flight submissions.
package thread

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/reaction"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/tree"
)

const defaultMaxIndent = 6

// Backend creates comments on the forum service.
type Backend interface {
	CreateComment(ctx context.Context, postID, parentID int64, content string) (model.Comment, error)
}

type Option func(*Controller)

func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// OnReplyAdded registers fn to receive every comment the viewer creates
// through the controller, after it has been placed in the tree.
func OnReplyAdded(fn func(model.Comment)) Option {
	return func(c *Controller) { c.onReplyAdded = fn }
}

// WithMaxIndent caps the visual indentation. Nesting itself is unbounded.
func WithMaxIndent(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.maxIndent = n
		}
	}
}

// Notice is a transient message for the user about a failed action.
type Notice struct {
	Ref  model.EntityRef
	Text string
}

type Controller struct {
	backend      Backend
	reactions    *reaction.Store
	viewer       *model.Viewer
	log          *zap.Logger
	onReplyAdded func(model.Comment)
	maxIndent    int

	mu      sync.Mutex
	tree    *tree.Tree
	nodes   map[int64]*nodeState
	posting bool
	notices []Notice
	closed  bool
}

// New takes ownership of tr. viewer may be nil when the identity has not
// been synced; every write action is then a guarded no-op.
func New(tr *tree.Tree, viewer *model.Viewer, backend Backend, reactions *reaction.Store, opts ...Option) *Controller {
	c := &Controller{
		backend:   backend,
		reactions: reactions,
		viewer:    viewer,
		log:       zap.NewNop(),
		maxIndent: defaultMaxIndent,
		tree:      tr,
		nodes:     make(map[int64]*nodeState),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.seedReactions(tr)
	return c
}

func (c *Controller) seedReactions(tr *tree.Tree) {
	for v := range tr.Walk() {
		c.reactions.Seed(model.CommentRef(v.Node.ID()), v.Node.Reaction())
	}
}

func (c *Controller) Viewer() *model.Viewer { return c.viewer }

func (c *Controller) PostID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.PostID()
}

// Reload swaps in a freshly fetched tree. Form and expansion state is kept
// for comments of the same post.
func (c *Controller) Reload(tr *tree.Tree) {
	c.mu.Lock()
	if tr.PostID() != c.tree.PostID() {
		c.nodes = make(map[int64]*nodeState)
	}
	c.tree = tr
	c.mu.Unlock()
	c.seedReactions(tr)
}

// Close detaches the controller. Responses that arrive later are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

// stateLocked returns the UI state of n, creating it with the default
// expansion: top-level open, nested closed.
func (c *Controller) stateLocked(n *tree.Node) *nodeState {
	st, ok := c.nodes[n.ID()]
	if !ok {
		st = &nodeState{expanded: n.ParentID() == 0}
		c.nodes[n.ID()] = st
	}
	return st
}

func (c *Controller) lookupLocked(id int64) (*tree.Node, *nodeState, error) {
	if c.closed {
		return nil, nil, ErrClosed
	}
	n := c.tree.Find(id)
	if n == nil {
		return nil, nil, ErrUnknownComment
	}
	return n, c.stateLocked(n), nil
}

func (c *Controller) OpenReply(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, st, err := c.lookupLocked(id)
	if err != nil {
		return err
	}
	switch st.phase {
	case PhaseSubmitting:
		return ErrSubmitting
	case PhaseIdle:
		st.phase = PhaseComposing
	}
	return nil
}

func (c *Controller) SetDraft(id int64, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, st, err := c.lookupLocked(id)
	if err != nil {
		return err
	}
	switch st.phase {
	case PhaseComposing, PhaseError:
		st.draft = text
		return nil
	case PhaseSubmitting:
		return ErrSubmitting
	default:
		return ErrNotComposing
	}
}

// CancelReply closes the form from any phase and discards the draft. A
// submission still in flight is not aborted; if it succeeds the reply is
// placed in the tree, if it fails nothing is shown.
func (c *Controller) CancelReply(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, st, err := c.lookupLocked(id)
	if err != nil {
		return err
	}
	st.reset()
	return nil
}

func (c *Controller) ToggleExpanded(id int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, st, err := c.lookupLocked(id)
	if err != nil {
		return false, err
	}
	st.expanded = !st.expanded
	return st.expanded, nil
}

func (c *Controller) Expanded(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, st, err := c.lookupLocked(id)
	return err == nil && st.expanded
}

func (c *Controller) Phase(id int64) Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, st, err := c.lookupLocked(id)
	if err != nil {
		return PhaseIdle
	}
	return st.phase
}

func (c *Controller) hasViewer() bool {
	return c.viewer != nil && c.viewer.ID != ""
}

// SubmitReply sends the draft of id's reply form. Empty text, a missing
// viewer or a closed form are guarded no-ops and leave the state as is.
func (c *Controller) SubmitReply(ctx context.Context, id int64) error {
	c.mu.Lock()
	_, st, err := c.lookupLocked(id)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	switch st.phase {
	case PhaseComposing, PhaseError:
	case PhaseSubmitting:
		c.mu.Unlock()
		return ErrSubmitting
	default:
		c.mu.Unlock()
		return ErrNotComposing
	}
	text := strings.TrimSpace(st.draft)
	if text == "" {
		c.mu.Unlock()
		return ErrEmptyDraft
	}
	if !c.hasViewer() {
		c.mu.Unlock()
		return reaction.ErrNoViewer
	}
	st.phase = PhaseSubmitting
	st.err = nil
	attempt := st.attempt
	postID := c.tree.PostID()
	c.mu.Unlock()

	created, err := c.backend.CreateComment(ctx, postID, id, text)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	current := st.attempt == attempt
	if err != nil {
		if current {
			st.phase = PhaseError
			st.err = err
			c.noticeLocked(model.CommentRef(id), "reply failed: "+err.Error())
		}
		c.mu.Unlock()
		c.log.Warn("reply failed", zap.Int64("post_id", postID), zap.Int64("parent_id", id), zap.Error(err))
		return fmt.Errorf("reply to %d: %w", id, err)
	}
	if current {
		st.reset()
	}
	st.expanded = true
	inserted := c.tree.InsertReply(id, created)
	cb := c.onReplyAdded
	c.mu.Unlock()

	c.reactions.Seed(model.CommentRef(created.ID), model.ReactionState{
		Likes:        created.Reactions.Likes,
		Dislikes:     created.Reactions.Dislikes,
		UserReaction: created.ViewerReaction,
	})
	if !inserted {
		c.log.Debug("reply not placed in tree", zap.Int64("comment_id", created.ID), zap.Int64("parent_id", id))
	}
	if cb != nil {
		cb(created)
	}
	return nil
}

// SubmitComment posts a new top-level comment.
func (c *Controller) SubmitComment(ctx context.Context, text string) (model.Comment, error) {
	text = strings.TrimSpace(text)
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return model.Comment{}, ErrClosed
	case text == "":
		c.mu.Unlock()
		return model.Comment{}, ErrEmptyDraft
	case !c.hasViewer():
		c.mu.Unlock()
		return model.Comment{}, reaction.ErrNoViewer
	case c.posting:
		c.mu.Unlock()
		return model.Comment{}, ErrSubmitting
	}
	c.posting = true
	postID := c.tree.PostID()
	c.mu.Unlock()

	created, err := c.backend.CreateComment(ctx, postID, 0, text)

	c.mu.Lock()
	c.posting = false
	if c.closed {
		c.mu.Unlock()
		return model.Comment{}, ErrClosed
	}
	if err != nil {
		c.noticeLocked(model.PostRef(postID), "comment failed: "+err.Error())
		c.mu.Unlock()
		c.log.Warn("comment failed", zap.Int64("post_id", postID), zap.Error(err))
		return model.Comment{}, fmt.Errorf("comment on post %d: %w", postID, err)
	}
	c.tree.Insert(created)
	cb := c.onReplyAdded
	c.mu.Unlock()

	if cb != nil {
		cb(created)
	}
	return created, nil
}

// React toggles kind on ref through the reaction store and mirrors the
// server's answer into the tree.
func (c *Controller) React(ctx context.Context, ref model.EntityRef, kind model.ReactionKind) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if ref.Kind == model.EntityComment && c.tree.Find(ref.ID) == nil {
		c.mu.Unlock()
		return ErrUnknownComment
	}
	c.mu.Unlock()

	st, err := c.reactions.Toggle(ctx, ref, c.viewer, kind)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err != nil {
		if !reaction.IsGuard(err) {
			c.noticeLocked(ref, "reaction failed: "+unwrapAll(err).Error())
		}
		return err
	}
	if ref.Kind == model.EntityComment {
		c.tree.SetReaction(ref.ID, st)
	}
	return nil
}

// Search returns the ids of comments matching query in traversal order
// and expands their ancestors so every hit is visible.
func (c *Controller) Search(query string) []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var ids []int64
	for _, v := range c.tree.Search(query) {
		ids = append(ids, v.Node.ID())
		for p := c.tree.Find(v.Node.ParentID()); p != nil; p = c.tree.Find(p.ParentID()) {
			c.stateLocked(p).expanded = true
		}
	}
	return ids
}

// PostReaction returns the viewer's cached reaction state for the post.
func (c *Controller) PostReaction() model.ReactionState {
	return c.reactions.State(model.PostRef(c.PostID()))
}

// SeedPostReaction records the server's view of the post's reactions.
// An in-flight toggle on the post keeps its own result.
func (c *Controller) SeedPostReaction(st model.ReactionState) {
	c.reactions.Seed(model.PostRef(c.PostID()), st)
}

// CommentCount is the number of comments in the thread, collapsed ones
// included.
func (c *Controller) CommentCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tree.Len()
}

// CanReact is the enabled predicate of ref's reaction buttons.
func (c *Controller) CanReact(ref model.EntityRef) bool {
	return !c.reactions.Disabled(ref, c.viewer)
}

func (c *Controller) noticeLocked(ref model.EntityRef, text string) {
	c.notices = append(c.notices, Notice{Ref: ref, Text: text})
}

func (c *Controller) Notices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notice(nil), c.notices...)
}

func (c *Controller) DrainNotices() []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.notices
	c.notices = nil
	return out
}

// IsGuard reports whether err is a rejected precondition rather than a
// remote failure.
func IsGuard(err error) bool {
	return reaction.IsGuard(err) ||
		errors.Is(err, ErrEmptyDraft) ||
		errors.Is(err, ErrNotComposing) ||
		errors.Is(err, ErrSubmitting) ||
		errors.Is(err, ErrClosed)
}

func unwrapAll(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
