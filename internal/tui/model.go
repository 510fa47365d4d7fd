// Package tui is the terminal front-end of a post's comment thread.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/thread"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/tree"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/unread"
)

const maxContentLen = 2000

// Backend is what the view needs beyond the controller.
type Backend interface {
	FetchComments(ctx context.Context, postID int64) ([]model.Comment, error)
	FetchPostReaction(ctx context.Context, postID int64) (model.ReactionState, error)
	MarkNotificationsRead(ctx context.Context) error
}

// UnreadMsg carries a new unread count into the program.
type UnreadMsg struct {
	Count int64
}

type reloadedMsg struct {
	comments []model.Comment
	post     model.ReactionState
	err      error
}

type replyDoneMsg struct {
	id  int64
	err error
}

type commentDoneMsg struct {
	err error
}

type reactDoneMsg struct {
	ref model.EntityRef
	err error
}

type readDoneMsg struct {
	err error
}

type mode int

const (
	modeBrowse mode = iota
	modeReply
	modeComment
	modeSearch
)

type Model struct {
	ctx     context.Context
	ctrl    *thread.Controller
	backend Backend
	poller  *unread.Poller
	log     *zap.Logger

	rows     []thread.Row
	selected int
	mode     mode
	target   int64
	input    textinput.Model
	hits     []int64
	status   string
	unread   int64
	width    int
	height   int
	quitting bool
}

type Option func(*Model)

func WithPoller(p *unread.Poller) Option {
	return func(m *Model) {
		m.poller = p
		if p != nil {
			m.unread = p.Count()
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(m *Model) {
		if log != nil {
			m.log = log
		}
	}
}

func New(ctx context.Context, ctrl *thread.Controller, backend Backend, opts ...Option) Model {
	ti := textinput.New()
	ti.CharLimit = maxContentLen
	ti.Width = 60

	m := Model{
		ctx:     ctx,
		ctrl:    ctrl,
		backend: backend,
		log:     zap.NewNop(),
		input:   ti,
		width:   80,
		height:  24,
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.refreshRows()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Selected() (thread.Row, bool) {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return thread.Row{}, false
	}
	return m.rows[m.selected], true
}

// refreshRows re-renders the tree and keeps the cursor on the same
// comment when it is still visible.
func (m *Model) refreshRows() {
	var keep int64
	if row, ok := m.Selected(); ok {
		keep = row.ID
	}
	m.rows = m.ctrl.Rows()
	m.selectID(keep)
}

func (m *Model) selectID(id int64) {
	for i, r := range m.rows {
		if r.ID == id {
			m.selected = i
			return
		}
	}
	m.selected = min(m.selected, len(m.rows)-1)
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) drainNotices() {
	if notices := m.ctrl.DrainNotices(); len(notices) > 0 {
		m.status = notices[len(notices)-1].Text
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(20, msg.Width-10)
		return m, nil

	case UnreadMsg:
		m.unread = msg.Count
		return m, nil

	case reloadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.ctrl.Reload(tree.Build(m.ctrl.PostID(), msg.comments))
		m.ctrl.SeedPostReaction(msg.post)
		m.status = "refreshed"
		m.refreshRows()
		return m, nil

	case replyDoneMsg:
		m.drainNotices()
		if msg.err == nil {
			m.status = "reply posted"
		}
		m.refreshRows()
		return m, nil

	case commentDoneMsg:
		m.drainNotices()
		if msg.err == nil {
			m.status = "comment posted"
		}
		m.refreshRows()
		return m, nil

	case reactDoneMsg:
		m.drainNotices()
		m.refreshRows()
		return m, nil

	case readDoneMsg:
		if msg.err != nil {
			m.status = "could not mark notifications read: " + msg.err.Error()
			return m, nil
		}
		m.unread = 0
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	row, hasRow := m.Selected()

	switch msg.String() {
	case "q":
		m.quitting = true
		m.ctrl.Close()
		return m, tea.Quit
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.rows)-1 {
			m.selected++
		}
	case "enter", " ":
		if hasRow && row.ReplyCount > 0 {
			if _, err := m.ctrl.ToggleExpanded(row.ID); err == nil {
				m.refreshRows()
			}
		}
	case "r":
		if !hasRow {
			return m, nil
		}
		if err := m.ctrl.OpenReply(row.ID); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.refreshRows()
		row, _ = m.Selected()
		return m.startInput(modeReply, row.ID, row.Draft, "reply to "+row.Author.Username+": ")
	case "c":
		return m.startInput(modeComment, 0, "", "comment: ")
	case "/":
		return m.startInput(modeSearch, 0, "", "search: ")
	case "N":
		if len(m.hits) > 0 {
			m.hits = append(m.hits[1:], m.hits[0])
			m.selectID(m.hits[0])
		}
	case "l", "d":
		if hasRow {
			return m, m.react(model.CommentRef(row.ID), kindFor(msg.String()))
		}
	case "L", "D":
		return m, m.react(model.PostRef(m.ctrl.PostID()), kindFor(msg.String()))
	case "R":
		return m, m.reload()
	case "n":
		return m, m.markRead()
	}
	return m, nil
}

func kindFor(key string) model.ReactionKind {
	if key == "l" || key == "L" {
		return model.ReactionLike
	}
	return model.ReactionDislike
}

func (m Model) startInput(md mode, target int64, value, prompt string) (tea.Model, tea.Cmd) {
	m.mode = md
	m.target = target
	m.input.Prompt = prompt
	m.input.SetValue(value)
	m.input.CursorEnd()
	cmd := m.input.Focus()
	return m, cmd
}

func (m Model) stopInput() Model {
	m.mode = modeBrowse
	m.target = 0
	m.input.Blur()
	m.input.SetValue("")
	return m
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.mode == modeReply {
			_ = m.ctrl.CancelReply(m.target)
			m.refreshRows()
		}
		return m.stopInput(), nil

	case "enter":
		value := m.input.Value()
		if m.mode != modeSearch && strings.TrimSpace(value) == "" {
			m.status = "write something first"
			return m, nil
		}
		switch m.mode {
		case modeReply:
			id := m.target
			_ = m.ctrl.SetDraft(id, value)
			m = m.stopInput()
			m.refreshRows()
			return m, m.submitReply(id)
		case modeComment:
			m = m.stopInput()
			return m, m.submitComment(value)
		case modeSearch:
			m = m.stopInput()
			m.hits = m.ctrl.Search(value)
			m.refreshRows()
			if len(m.hits) == 0 {
				m.status = "no matches"
				return m, nil
			}
			m.selectID(m.hits[0])
			m.status = ""
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.mode == modeReply {
		_ = m.ctrl.SetDraft(m.target, m.input.Value())
	}
	return m, cmd
}

func (m Model) submitReply(id int64) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		err := ctrl.SubmitReply(ctx, id)
		if thread.IsGuard(err) {
			err = nil
		}
		return replyDoneMsg{id: id, err: err}
	}
}

func (m Model) submitComment(text string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		_, err := ctrl.SubmitComment(ctx, text)
		if thread.IsGuard(err) {
			err = nil
		}
		return commentDoneMsg{err: err}
	}
}

func (m Model) react(ref model.EntityRef, kind model.ReactionKind) tea.Cmd {
	if !m.ctrl.CanReact(ref) {
		return nil
	}
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return reactDoneMsg{ref: ref, err: ctrl.React(ctx, ref, kind)}
	}
}

func (m Model) reload() tea.Cmd {
	backend, ctx, postID, log := m.backend, m.ctx, m.ctrl.PostID(), m.log
	return func() tea.Msg {
		comments, err := backend.FetchComments(ctx, postID)
		var post model.ReactionState
		if err == nil {
			post, err = backend.FetchPostReaction(ctx, postID)
		}
		if err != nil {
			log.Warn("refresh failed", zap.Int64("post_id", postID), zap.Error(err))
		}
		return reloadedMsg{comments: comments, post: post, err: err}
	}
}

func (m Model) markRead() tea.Cmd {
	backend, ctx, poller := m.backend, m.ctx, m.poller
	return func() tea.Msg {
		err := backend.MarkNotificationsRead(ctx)
		if err == nil && poller != nil {
			poller.Set(0)
		}
		return readDoneMsg{err: err}
	}
}
